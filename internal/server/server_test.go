package server

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/config"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/services"
)

func newTestServer(t *testing.T) (*Server, *services.Manager) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		SessionsDir:   filepath.Join(dir, "sessions"),
		IncludeLocal:  true,
		DataDir:       dir,
		DatabasePath:  filepath.Join(dir, "cache.db"),
		ServerHost:    "127.0.0.1",
		WatchDebounce: 50 * time.Millisecond,
	}
	if err := os.MkdirAll(cfg.SessionsDir, 0o750); err != nil {
		t.Fatalf("Failed to create sessions dir: %v", err)
	}

	m, err := services.NewManager(cfg)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return New(cfg, m), m
}

func writeSessionLog(t *testing.T, dir string, lines ...string) {
	t.Helper()
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, "rollout-test.jsonl"), buf.Bytes(), 0o600); err != nil {
		t.Fatalf("Failed to write session log: %v", err)
	}
}

func TestServer_GetUsage(t *testing.T) {
	srv, m := newTestServer(t)
	writeSessionLog(t, m.Config().SessionsDir,
		`{"timestamp":"2026-08-22T10:00:00.000Z","type":"user_message","payload":{}}`,
		`{"timestamp":"2026-08-22T10:00:05.000Z","type":"token_count","payload":{"info":{"last_token_usage":{"input_tokens":100,"output_tokens":50}}}}`,
		`{"timestamp":"2026-08-22T10:00:05.000Z","type":"agent_message","payload":{}}`,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/usage?window=all", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var ds models.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("Failed to decode dataset: %v", err)
	}
	if ds.Window != "all" {
		t.Errorf("window = %q, want all", ds.Window)
	}
	if ds.TokensTotal != 150 {
		t.Errorf("tokens = %d, want 150", ds.TokensTotal)
	}
	if ds.FilesScanned != 1 {
		t.Errorf("files scanned = %d, want 1", ds.FilesScanned)
	}
}

func TestServer_GetUsageDefaultsToDay(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usage", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var ds models.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("Failed to decode dataset: %v", err)
	}
	if ds.Window != "1d" {
		t.Errorf("window = %q, want 1d", ds.Window)
	}
}

func TestServer_GetUsageBadParams(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		url  string
	}{
		{"unknown window", "/api/usage?window=fortnight"},
		{"bad start", "/api/usage?window=custom&start=yesterday"},
		{"bad granularity", "/api/usage?granularity=minute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("expected an error body, got %q (%v)", rec.Body.String(), err)
			}
		})
	}
}

func TestServer_GetUsageCustomRange(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	url := "/api/usage?window=custom&start=2026-06-01&end=2026-06-08"
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var ds models.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("Failed to decode dataset: %v", err)
	}
	if ds.Window != "custom" {
		t.Errorf("window = %q, want custom", ds.Window)
	}
	if got := ds.WindowEnd.Sub(ds.WindowStart); got != 7*24*time.Hour {
		t.Errorf("window span = %v, want 168h", got)
	}
}

func TestServer_SourcesLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	// Empty list to start.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []models.Source
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("Failed to decode sources: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("got %d sources, want 0", len(listed))
	}

	// Add one.
	body, _ := json.Marshal(models.Source{Label: "build box", Host: "build.example.com", Path: "/srv/sessions", Password: "hunter2"})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sources", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var added models.Source
	if err := json.NewDecoder(rec.Body).Decode(&added); err != nil {
		t.Fatalf("Failed to decode added source: %v", err)
	}
	if added.ID == "" {
		t.Error("added source has no ID")
	}
	if added.Password != "" {
		t.Error("password leaked in the add response")
	}
	if added.Port != 22 {
		t.Errorf("port = %d, want the ssh default", added.Port)
	}

	// It shows up in the list, sanitized.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources", nil))
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("Failed to decode sources: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != added.ID {
		t.Fatalf("list after add = %+v", listed)
	}

	// Delete it.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sources/"+added.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sources/"+added.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestServer_AddSourceRejectsBadPayload(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"host":`},
		{"missing host", `{"path":"/srv/sessions"}`},
		{"missing path", `{"host":"build.example.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sources", bytes.NewReader([]byte(tt.body))))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestServer_SyncUnknownSource(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sources/src_missing/sync", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestServer_ListenRetriesPorts(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cfg.ServerPort = 0 // the kernel picks a free port
	srv.cfg.PortRetryCount = 1

	ln, err := srv.Listen()
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer ln.Close()

	// The bound port is now busy; starting at it must fall through to the next.
	srv.cfg.ServerPort = ln.Addr().(*net.TCPAddr).Port
	srv.cfg.PortRetryCount = 3
	second, err := srv.Listen()
	if err != nil {
		t.Fatalf("Listen with busy port failed: %v", err)
	}
	defer second.Close()
	if second.Addr().(*net.TCPAddr).Port == srv.cfg.ServerPort {
		t.Error("second listener reused the busy port")
	}
}
