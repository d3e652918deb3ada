package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/services"
)

type handler struct {
	manager *services.Manager
}

func newHandler(manager *services.Manager) *handler {
	return &handler{manager: manager}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// GetUsage computes a dataset for the requested window or explicit range.
func (h *handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	q, err := parseUsageQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ds, err := h.manager.Usage().Fetch(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func parseUsageQuery(r *http.Request) (models.UsageQuery, error) {
	var q models.UsageQuery

	if window := r.URL.Query().Get("window"); window != "" {
		key := models.WindowKey(window)
		if !key.Valid() {
			return q, fmt.Errorf("unknown window %q", window)
		}
		q.Key = key
	} else {
		q.Key = models.WindowDay
	}

	var err error
	if q.Start, err = parseInstant(r.URL.Query().Get("start")); err != nil {
		return q, fmt.Errorf("bad start: %w", err)
	}
	if q.End, err = parseInstant(r.URL.Query().Get("end")); err != nil {
		return q, fmt.Errorf("bad end: %w", err)
	}

	if g := r.URL.Query().Get("granularity"); g != "" {
		q.Granularity = models.Granularity(g)
		if !q.Granularity.Valid() {
			return q, fmt.Errorf("unknown granularity %q", g)
		}
	}
	return q, nil
}

// parseInstant accepts RFC 3339 instants or bare dates.
func parseInstant(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q", raw)
}

// ListSources returns the configured sources, passwords stripped.
func (h *handler) ListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Sources().List())
}

// AddSource registers a new source.
func (h *handler) AddSource(w http.ResponseWriter, r *http.Request) {
	var src models.Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad source payload: %w", err))
		return
	}
	added, err := h.manager.Sources().Add(src)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// DeleteSource removes a source and its synced sessions.
func (h *handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.Sources().Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncSource pulls one source's session logs.
func (h *handler) SyncSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.SyncSource(r.Context(), id); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.Sources().Get(id))
}

// Health reports liveness.
func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
