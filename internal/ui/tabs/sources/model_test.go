package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/m-ruiz/codex-usage-tui/internal/app"
	"github.com/m-ruiz/codex-usage-tui/internal/config"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/services"
)

func newTestManager(t *testing.T) *services.Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		SessionsDir:   filepath.Join(dir, "sessions"),
		IncludeLocal:  true,
		DataDir:       dir,
		DatabasePath:  filepath.Join(dir, "cache.db"),
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
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAddFormSavesSource(t *testing.T) {
	mgr := newTestManager(t)
	m := New(app.NewState(), mgr)

	m.Update(keyMsg("a"))
	if !m.CapturingInput() {
		t.Fatal("'a' should open the add form")
	}

	m.inputs[fieldLabel].SetValue("build box")
	m.inputs[fieldHost].SetValue("build.example.com")
	m.inputs[fieldUser].SetValue("ci")
	m.inputs[fieldPath].SetValue("/home/ci/.codex/sessions")
	m.focus = fieldPassword
	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("submit should produce a save command")
	}
	if m.CapturingInput() {
		t.Error("submit should close the form")
	}

	saved, ok := cmd().(app.SourceSavedMsg)
	if !ok {
		t.Fatalf("save produced %T", cmd())
	}
	if saved.Err != nil {
		t.Fatalf("save failed: %v", saved.Err)
	}
	if saved.Source.ID == "" {
		t.Error("stored source has no ID")
	}
	if saved.Source.Port != 22 {
		t.Errorf("port = %d, want the ssh default", saved.Source.Port)
	}

	if got := mgr.Sources().Count(); got != 1 {
		t.Errorf("manager holds %d sources, want 1", got)
	}
}

func TestAddFormValidation(t *testing.T) {
	m := New(app.NewState(), nil)

	m.Update(keyMsg("a"))
	m.inputs[fieldPath].SetValue("/srv/sessions")
	m.focus = fieldPassword
	_, cmd := m.Update(keyMsg("enter"))
	if cmd != nil || m.formErr == "" {
		t.Error("missing host should set a form error")
	}
	if !m.CapturingInput() {
		t.Error("the form stays open on a validation error")
	}

	m.inputs[fieldHost].SetValue("build.example.com")
	m.inputs[fieldPort].SetValue("ssh")
	_, cmd = m.Update(keyMsg("enter"))
	if cmd != nil || m.formErr != "port must be a number" {
		t.Errorf("bad port accepted, formErr = %q", m.formErr)
	}

	m.Update(keyMsg("esc"))
	if m.CapturingInput() {
		t.Error("esc should close the form")
	}
}

func TestSelectionNavigation(t *testing.T) {
	m := New(app.NewState(), nil)
	m.sources = []models.Source{{ID: "src_1"}, {ID: "src_2"}, {ID: "src_3"}}

	m.Update(keyMsg("j"))
	m.Update(keyMsg("j"))
	m.Update(keyMsg("j")) // clamped at the end
	if m.selected != 2 {
		t.Errorf("selected = %d, want 2", m.selected)
	}
	m.Update(keyMsg("k"))
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}

	// Shrinking the list clamps the selection.
	m.selected = 2
	m.Update(app.SourcesUpdatedMsg{Sources: []models.Source{{ID: "src_1"}}})
	if m.selected != 0 {
		t.Errorf("selected = %d after shrink, want 0", m.selected)
	}
}

func TestSyncMarksSourceBusy(t *testing.T) {
	state := app.NewState()
	m := New(state, newTestManager(t))
	m.sources = []models.Source{{ID: "src_1", Label: "build box"}}

	_, cmd := m.Update(keyMsg("s"))
	if cmd == nil {
		t.Fatal("sync should produce a command")
	}
	if !state.IsSyncing("src_1") {
		t.Error("sync should mark the source busy")
	}
}

func TestDeleteSelectedSource(t *testing.T) {
	mgr := newTestManager(t)
	added, err := mgr.Sources().Add(models.Source{Host: "build.example.com", Path: "/srv/sessions"})
	if err != nil {
		t.Fatalf("Failed to seed source: %v", err)
	}

	m := New(app.NewState(), mgr)
	if len(m.sources) != 1 {
		t.Fatalf("tab seeded %d sources, want 1", len(m.sources))
	}

	_, cmd := m.Update(keyMsg("d"))
	if cmd == nil {
		t.Fatal("delete should produce a command")
	}
	deleted, ok := cmd().(app.SourceDeletedMsg)
	if !ok {
		t.Fatalf("delete produced %T", cmd())
	}
	if deleted.Err != nil {
		t.Fatalf("delete failed: %v", deleted.Err)
	}
	if deleted.ID != added.ID {
		t.Errorf("deleted %q, want %q", deleted.ID, added.ID)
	}
	if got := mgr.Sources().Count(); got != 0 {
		t.Errorf("manager still holds %d sources", got)
	}
}

func TestSaveErrorReopensForm(t *testing.T) {
	m := New(app.NewState(), nil)

	m.Update(app.SourceSavedMsg{Err: os.ErrPermission})
	if !m.CapturingInput() {
		t.Error("a failed save should reopen the form")
	}
	if m.formErr == "" {
		t.Error("the failure should be shown in the form")
	}
}
