// Package sources provides the remote sources management tab.
package sources

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/m-ruiz/codex-usage-tui/internal/app"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/services"
)

// form field indexes, in focus order.
const (
	fieldLabel = iota
	fieldHost
	fieldPort
	fieldUser
	fieldPath
	fieldPassword
	fieldCount
)

// keyMap defines the key bindings specific to the sources tab.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Add     key.Binding
	Sync    key.Binding
	SyncAll key.Binding
	Delete  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add source")),
		Sync:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
		SyncAll: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sync all")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	}
}

// Model represents the sources tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	keys     keyMap

	sources  []models.Source
	selected int

	// Add form
	editing bool
	inputs  []textinput.Model
	focus   int
	formErr string

	width  int
	height int
}

// New creates a sources tab.
func New(state *app.State, mgr *services.Manager) *Model {
	m := &Model{
		state:    state,
		services: mgr,
		keys:     defaultKeyMap(),
		inputs:   make([]textinput.Model, fieldCount),
	}

	placeholders := []string{"build box", "build.example.com", "22", "ci", "/home/ci/.codex/sessions", ""}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Width = 32
		if i == fieldPassword {
			in.EchoMode = textinput.EchoPassword
			in.Placeholder = "(key auth when empty)"
		}
		m.inputs[i] = in
	}

	if mgr != nil {
		m.sources = mgr.Sources().List()
	}
	return m
}

// CapturingInput reports whether the add form is open.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Init initializes the sources tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the sources tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case app.SourcesUpdatedMsg:
		m.sources = msg.Sources
		if m.selected >= len(m.sources) {
			m.selected = max(0, len(m.sources)-1)
		}

	case app.SourceSavedMsg:
		if msg.Err != nil {
			m.formErr = msg.Err.Error()
			m.editing = true
			return m, nil
		}
		return m, app.NotifySuccess("Added " + msg.Source.Label)

	case app.SourceDeletedMsg:
		if msg.Err != nil {
			return m, app.NotifyError(msg.Err.Error())
		}
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.editing {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.sources)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Add):
		m.openForm()
		return textinput.Blink
	case key.Matches(msg, m.keys.Sync):
		if src := m.selectedSource(); src != nil {
			m.state.SetSyncing(src.ID, true)
			return tea.Batch(
				app.SyncSource(m.services, src.ID),
				app.NotifyInfo("Syncing "+src.Label),
			)
		}
	case key.Matches(msg, m.keys.SyncAll):
		if len(m.sources) > 0 {
			for _, src := range m.sources {
				m.state.SetSyncing(src.ID, true)
			}
			return tea.Batch(
				app.SyncAllSources(m.services),
				app.NotifyInfo("Syncing all sources"),
			)
		}
	case key.Matches(msg, m.keys.Delete):
		if src := m.selectedSource(); src != nil {
			return app.DeleteSource(m.services, src.ID)
		}
	}
	return nil
}

func (m *Model) selectedSource() *models.Source {
	if m.selected < 0 || m.selected >= len(m.sources) {
		return nil
	}
	return &m.sources[m.selected]
}

func (m *Model) openForm() {
	m.editing = true
	m.formErr = ""
	m.focus = 0
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.inputs[0].Focus()
}

func (m *Model) closeForm() {
	m.editing = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) setFocus(idx int) tea.Cmd {
	m.focus = (idx + fieldCount) % fieldCount
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return textinput.Blink
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return nil
	case "tab", "down":
		return m.setFocus(m.focus + 1)
	case "shift+tab", "up":
		return m.setFocus(m.focus - 1)
	case "enter":
		if m.focus < fieldCount-1 {
			return m.setFocus(m.focus + 1)
		}
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) submitForm() tea.Cmd {
	src := models.Source{
		Label:    m.inputs[fieldLabel].Value(),
		Host:     m.inputs[fieldHost].Value(),
		User:     m.inputs[fieldUser].Value(),
		Path:     m.inputs[fieldPath].Value(),
		Password: m.inputs[fieldPassword].Value(),
	}
	if src.Host == "" || src.Path == "" {
		m.formErr = "host and path are required"
		return nil
	}
	if raw := m.inputs[fieldPort].Value(); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			m.formErr = "port must be a number"
			return nil
		}
		src.Port = port
	}

	m.closeForm()
	return app.SaveSource(m.services, src)
}

// SetSize sets the available size for the sources tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Add, m.keys.Sync, m.keys.Delete}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Add, m.keys.Delete},
		{m.keys.Sync, m.keys.SyncAll},
	}
}
