package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/m-ruiz/codex-usage-tui/internal/app"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// fakeFetcher records queries and serves a canned dataset.
type fakeFetcher struct {
	mu      sync.Mutex
	queries []models.UsageQuery
}

func (f *fakeFetcher) Fetch(_ context.Context, q models.UsageQuery) (*models.Dataset, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	start := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	return &models.Dataset{
		Window:      string(q.Key),
		Granularity: models.GranularityHour,
		TokensTotal: 100,
		Buckets: []models.Bucket{
			{Start: start, End: start.Add(time.Hour), Tokens: 100},
		},
	}, nil
}

func (f *fakeFetcher) recorded() []models.UsageQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.UsageQuery(nil), f.queries...)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs a command tree to completion and returns the messages produced.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var msgs []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			msgs = append(msgs, drain(c)...)
		}
	default:
		msgs = append(msgs, msg)
	}
	return msgs
}

// fetched extracts the usage responses from a drained command tree.
func fetched(msgs []tea.Msg) []app.UsageFetchedMsg {
	var out []app.UsageFetchedMsg
	for _, msg := range msgs {
		if m, ok := msg.(app.UsageFetchedMsg); ok {
			out = append(out, m)
		}
	}
	return out
}

func TestInitFetchesDefaultWindow(t *testing.T) {
	f := &fakeFetcher{}
	m := New(f)
	m.SetSize(80, 24)

	msgs := fetched(drain(m.Init()))
	if len(msgs) != 1 {
		t.Fatalf("init produced %d fetches, want 1", len(msgs))
	}
	if msgs[0].Req.Key != models.WindowDay {
		t.Errorf("initial window = %v, want 1d", msgs[0].Req.Key)
	}

	m.Update(msgs[0])
	if m.Controller().Dataset() == nil {
		t.Error("response should populate the chart")
	}
}

func TestWindowKeysIssueFetches(t *testing.T) {
	tests := []struct {
		press string
		want  models.WindowKey
	}{
		{"w", models.WindowWeek},
		{"m", models.WindowMonth},
		{"y", models.WindowYear},
		{"a", models.WindowAll},
	}
	for _, tt := range tests {
		t.Run(tt.press, func(t *testing.T) {
			f := &fakeFetcher{}
			m := New(f)

			_, cmd := m.Update(keyMsg(tt.press))
			msgs := fetched(drain(cmd))
			if len(msgs) != 1 {
				t.Fatalf("got %d fetches, want 1", len(msgs))
			}
			if msgs[0].Req.Key != tt.want {
				t.Errorf("window = %v, want %v", msgs[0].Req.Key, tt.want)
			}
		})
	}
}

func TestCachedWindowDoesNotRefetch(t *testing.T) {
	f := &fakeFetcher{}
	m := New(f)

	_, cmd := m.Update(keyMsg("w"))
	for _, msg := range fetched(drain(cmd)) {
		m.Update(msg)
	}

	// Away and back: the cached week window must not hit the fetcher.
	_, cmd = m.Update(keyMsg("d"))
	for _, msg := range fetched(drain(cmd)) {
		m.Update(msg)
	}
	before := len(f.recorded())

	_, cmd = m.Update(keyMsg("w"))
	if got := fetched(drain(cmd)); len(got) != 0 {
		t.Errorf("cached window issued %d fetches", len(got))
	}
	if len(f.recorded()) != before {
		t.Error("fetcher was called for a cached window")
	}
}

func TestWindowCyclingCoversQuarter(t *testing.T) {
	f := &fakeFetcher{}
	m := New(f)

	// day -> week -> month -> quarter via the right arrow.
	for i := 0; i < 3; i++ {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
		for _, msg := range fetched(drain(cmd)) {
			m.Update(msg)
		}
	}
	if m.Controller().Active() != models.WindowQuarter {
		t.Errorf("active = %v, want 3m", m.Controller().Active())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	drain(cmd)
	if m.Controller().Active() != models.WindowMonth {
		t.Errorf("active after left = %v, want 1m", m.Controller().Active())
	}
}

func TestDataInvalidationRefetchesActiveWindow(t *testing.T) {
	f := &fakeFetcher{}
	m := New(f)

	_, cmd := m.Update(keyMsg("w"))
	for _, msg := range fetched(drain(cmd)) {
		m.Update(msg)
	}

	_, cmd = m.Update(app.DataInvalidatedMsg{})
	msgs := fetched(drain(cmd))
	if len(msgs) != 1 {
		t.Fatalf("invalidation produced %d fetches, want 1", len(msgs))
	}
	if msgs[0].Req.Key != models.WindowWeek {
		t.Errorf("refetched %v, want the active window", msgs[0].Req.Key)
	}
}

func TestCustomFormFlow(t *testing.T) {
	f := &fakeFetcher{}
	m := New(f)

	if m.CapturingInput() {
		t.Fatal("form should start closed")
	}
	m.Update(keyMsg("c"))
	if !m.CapturingInput() {
		t.Fatal("'c' should open the custom range form")
	}

	m.startInput.SetValue("2026-06-01")
	m.endInput.SetValue("2026-06-07")
	m.Update(keyMsg("enter")) // advances focus to the end field
	_, cmd := m.Update(keyMsg("enter"))

	if m.CapturingInput() {
		t.Error("submit should close the form")
	}
	msgs := fetched(drain(cmd))
	if len(msgs) != 1 {
		t.Fatalf("submit produced %d fetches, want 1", len(msgs))
	}
	q := msgs[0].Req.Query
	if q.Key != models.WindowCustom {
		t.Errorf("window = %v, want custom", q.Key)
	}
	// The end date is inclusive, so the query extends to the next midnight.
	wantEnd := time.Date(2026, 6, 8, 0, 0, 0, 0, time.Local)
	if !q.End.Equal(wantEnd) {
		t.Errorf("query end = %v, want %v", q.End, wantEnd)
	}
}

func TestCustomFormValidation(t *testing.T) {
	f := &fakeFetcher{}
	m := New(f)
	m.Update(keyMsg("c"))

	m.startInput.SetValue("June 1st")
	m.endInput.SetValue("2026-06-07")
	m.focusEnd = true
	_, cmd := m.Update(keyMsg("enter"))
	if cmd != nil || m.formErr == "" {
		t.Error("malformed start date should set a form error and fetch nothing")
	}
	if !m.CapturingInput() {
		t.Error("the form stays open on a validation error")
	}

	m.startInput.SetValue("2026-06-07")
	m.endInput.SetValue("2026-06-01")
	_, cmd = m.Update(keyMsg("enter"))
	if cmd != nil || m.formErr == "" {
		t.Error("inverted range should set a form error")
	}

	m.Update(keyMsg("esc"))
	if m.CapturingInput() {
		t.Error("esc should close the form")
	}
}

func TestCustomWithoutRangeIsPlaceholder(t *testing.T) {
	f := &fakeFetcher{}
	m := New(f)

	// Cycle left from day wraps to custom, which must not fetch.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := fetched(drain(cmd)); len(got) != 0 {
		t.Errorf("custom placeholder issued %d fetches", len(got))
	}
	if m.Controller().Active() != models.WindowCustom {
		t.Errorf("active = %v, want custom", m.Controller().Active())
	}
}

func TestFetchResolvesWhileAnotherTabFocused(t *testing.T) {
	f := &fakeFetcher{}
	tab := New(f)
	root := app.NewModel(nil)
	root.SetTabs([]app.Tab{tab, nil, nil})

	// Issue a fetch from the usage tab, then move focus away before the
	// response arrives.
	_, cmd := root.Update(keyMsg("w"))
	responses := fetched(drain(cmd))
	if len(responses) != 1 {
		t.Fatalf("got %d fetches, want 1", len(responses))
	}
	root.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	if root.GetActiveTab() != app.TabSources {
		t.Fatalf("active tab = %v, want Sources", root.GetActiveTab())
	}

	root.Update(responses[0])
	if tab.Controller().Dataset() == nil {
		t.Error("response must reach the usage tab while another tab is focused")
	}
	if tab.Controller().Loading() {
		t.Error("loading must clear when the response lands in the background")
	}
}

func TestInvalidationWhileAnotherTabFocused(t *testing.T) {
	f := &fakeFetcher{}
	tab := New(f)
	root := app.NewModel(nil)
	root.SetTabs([]app.Tab{tab, nil, nil})

	_, cmd := root.Update(keyMsg("w"))
	for _, msg := range fetched(drain(cmd)) {
		root.Update(msg)
	}
	root.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})

	_, cmd = root.Update(app.DataInvalidatedMsg{})
	msgs := fetched(drain(cmd))
	if len(msgs) != 1 {
		t.Fatalf("invalidation produced %d fetches, want 1", len(msgs))
	}
	if msgs[0].Req.Key != models.WindowWeek {
		t.Errorf("refetched %v, want the usage tab's active window", msgs[0].Req.Key)
	}
}

func TestMouseOutsideChartClearsHover(t *testing.T) {
	f := &fakeFetcher{}
	m := New(f)
	m.SetSize(80, 30)

	_, cmd := m.Update(keyMsg("d"))
	for _, msg := range fetched(drain(cmd)) {
		m.Update(msg)
	}
	_ = m.View()

	m.Update(tea.MouseMsg{X: 40, Y: chartOriginRow + 5, Action: tea.MouseActionMotion})
	if m.Controller().HoveredBucket() == nil {
		t.Fatal("pointer over the full-height bar should hover it")
	}

	m.Update(tea.MouseMsg{X: 40, Y: 0, Action: tea.MouseActionMotion})
	if m.Controller().HoveredBucket() != nil {
		t.Error("pointer above the chart should clear the hover")
	}
}
