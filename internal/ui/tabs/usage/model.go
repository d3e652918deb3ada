// Package usage provides the token usage chart tab.
package usage

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/m-ruiz/codex-usage-tui/internal/app"
	"github.com/m-ruiz/codex-usage-tui/internal/chart"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/components"
)

// chartOriginRow is the screen row of the chart's top edge: two navbar rows
// plus the tab's three header rows. Mouse coordinates arrive in screen space.
const chartOriginRow = 5

// trendHeight is the uptime trend panel height, shown when the tab is tall
// enough to fit it under the chart.
const trendHeight = 8

// cycleOrder is the left/right window cycling order.
var cycleOrder = models.WindowKeys()

// keyMap defines the key bindings specific to the usage tab.
type keyMap struct {
	Day     key.Binding
	Week    key.Binding
	Month   key.Binding
	Year    key.Binding
	All     key.Binding
	Custom  key.Binding
	Prev    key.Binding
	Next    key.Binding
	Refresh key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Day:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "1 day")),
		Week:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "1 week")),
		Month:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "1 month")),
		Year:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "1 year")),
		All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all time")),
		Custom:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "custom range")),
		Prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev window")),
		Next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next window")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

// Model represents the usage tab state.
type Model struct {
	controller *chart.Controller
	fetcher    chart.Fetcher
	keys       keyMap
	spinner    components.LoadingSpinner

	// Custom range form
	editing    bool
	startInput textinput.Model
	endInput   textinput.Model
	focusEnd   bool
	formErr    string

	width  int
	height int
}

// New creates a usage tab over the given fetcher.
func New(fetcher chart.Fetcher) *Model {
	start := textinput.New()
	start.Placeholder = "2026-01-01"
	start.CharLimit = 10
	start.Width = 12

	end := textinput.New()
	end.Placeholder = "2026-01-31"
	end.CharLimit = 10
	end.Width = 12

	return &Model{
		controller: chart.NewController(),
		fetcher:    fetcher,
		keys:       defaultKeyMap(),
		spinner:    components.NewSpinner("fetching usage"),
		startInput: start,
		endInput:   end,
	}
}

// CapturingInput reports whether the custom range form is open.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Init initializes the usage tab with an initial fetch of the default window.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Init(),
		m.issue(m.controller.SelectWindow(m.controller.Active())),
	)
}

// issue turns a controller fetch request into a command; nil requests
// (placeholder or cache hit) produce no work.
func (m *Model) issue(req *chart.FetchRequest) tea.Cmd {
	if req == nil {
		return nil
	}
	return tea.Batch(app.FetchUsage(m.fetcher, *req), m.spinner.Init())
}

// Update handles messages for the usage tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case tea.MouseMsg:
		m.handleMouseMsg(msg)

	case app.UsageFetchedMsg:
		m.controller.Apply(msg.Req, msg.Dataset, msg.Err)

	case app.DataInvalidatedMsg:
		return m, m.issue(m.controller.Invalidate())

	case spinner.TickMsg:
		if m.controller.Loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.editing {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Day):
		return m.issue(m.controller.SelectWindow(models.WindowDay))
	case key.Matches(msg, m.keys.Week):
		return m.issue(m.controller.SelectWindow(models.WindowWeek))
	case key.Matches(msg, m.keys.Month):
		return m.issue(m.controller.SelectWindow(models.WindowMonth))
	case key.Matches(msg, m.keys.Year):
		return m.issue(m.controller.SelectWindow(models.WindowYear))
	case key.Matches(msg, m.keys.All):
		return m.issue(m.controller.SelectWindow(models.WindowAll))
	case key.Matches(msg, m.keys.Custom):
		m.openForm()
		return textinput.Blink
	case key.Matches(msg, m.keys.Prev):
		return m.issue(m.controller.SelectWindow(m.cycle(-1)))
	case key.Matches(msg, m.keys.Next):
		return m.issue(m.controller.SelectWindow(m.cycle(1)))
	case key.Matches(msg, m.keys.Refresh):
		return m.issue(m.controller.Refresh())
	}
	return nil
}

// cycle steps through the window order relative to the active window.
func (m *Model) cycle(delta int) models.WindowKey {
	active := m.controller.Active()
	for i, k := range cycleOrder {
		if k == active {
			return cycleOrder[(i+delta+len(cycleOrder))%len(cycleOrder)]
		}
	}
	return cycleOrder[0]
}

func (m *Model) openForm() {
	m.editing = true
	m.formErr = ""
	m.focusEnd = false
	m.startInput.Focus()
	m.endInput.Blur()
}

func (m *Model) closeForm() {
	m.editing = false
	m.startInput.Blur()
	m.endInput.Blur()
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return nil

	case "tab", "shift+tab":
		m.focusEnd = !m.focusEnd
		if m.focusEnd {
			m.startInput.Blur()
			m.endInput.Focus()
		} else {
			m.endInput.Blur()
			m.startInput.Focus()
		}
		return textinput.Blink

	case "enter":
		if !m.focusEnd {
			m.focusEnd = true
			m.startInput.Blur()
			m.endInput.Focus()
			return textinput.Blink
		}
		return m.submitForm()
	}

	var cmd tea.Cmd
	if m.focusEnd {
		m.endInput, cmd = m.endInput.Update(msg)
	} else {
		m.startInput, cmd = m.startInput.Update(msg)
	}
	return cmd
}

func (m *Model) submitForm() tea.Cmd {
	start, err := time.ParseInLocation("2006-01-02", m.startInput.Value(), time.Local)
	if err != nil {
		m.formErr = "start date must be YYYY-MM-DD"
		return nil
	}
	end, err := time.ParseInLocation("2006-01-02", m.endInput.Value(), time.Local)
	if err != nil {
		m.formErr = "end date must be YYYY-MM-DD"
		return nil
	}
	// The end date is inclusive.
	end = end.AddDate(0, 0, 1)
	if !end.After(start) {
		m.formErr = "end date precedes start date"
		return nil
	}

	m.closeForm()
	return m.issue(m.controller.ApplyCustomRange(start, end))
}

// handleMouseMsg translates screen coordinates into chart space.
func (m *Model) handleMouseMsg(msg tea.MouseMsg) {
	x := msg.X
	y := msg.Y - chartOriginRow

	if x < 0 || y < 0 || x >= m.chartWidth() || y >= m.chartHeight() {
		m.controller.OnPointerLeave()
		return
	}
	m.controller.OnPointerMove(x, y)
}

func (m *Model) chartWidth() int {
	return m.width
}

func (m *Model) chartHeight() int {
	h := m.height - 3 // header rows
	if h-trendHeight >= 8 {
		h -= trendHeight
	}
	return max(0, h)
}

// SetSize sets the available size for the usage tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.controller.OnResize(m.chartWidth(), m.chartHeight())
}

// Controller exposes the chart controller, for the root model and tests.
func (m *Model) Controller() *chart.Controller {
	return m.controller
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Prev, m.keys.Next, m.keys.Custom, m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Day, m.keys.Week, m.keys.Month},
		{m.keys.Year, m.keys.All, m.keys.Custom},
		{m.keys.Prev, m.keys.Next, m.keys.Refresh},
	}
}
