package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/m-ruiz/codex-usage-tui/internal/ui/styles"
	"github.com/m-ruiz/codex-usage-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderKeysCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 80 {
		w = 80
	}
	return w
}

// renderConfigCard renders the configuration paths card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderConfigRow("Sessions Dir", m.config.SessionsDir))
		rows = append(rows, m.renderConfigRow("Data Dir", m.config.DataDir))
		rows = append(rows, m.renderConfigRow("Scan Cache", m.config.DatabasePath))
		rows = append(rows, m.renderConfigRow("Sources File", m.config.SourcesPath()))
		if m.config.RemoteURL != "" {
			rows = append(rows, m.renderConfigRow("Remote API", m.config.RemoteURL))
		} else {
			rows = append(rows, m.renderConfigRow("Serve Address",
				fmt.Sprintf("%s:%d", m.config.ServerHost, m.config.ServerPort)))
		}
		rows = append(rows, m.renderConfigRow("Watch Debounce", m.config.WatchDebounce.String()))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderKeysCard renders the keybinding reference card.
func (m *Model) renderKeysCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Keys"))
	rows = append(rows, "")

	bindings := [][2]string{
		{"1-3, tab", "switch tabs"},
		{"d w m y a", "usage window"},
		{"left/right", "cycle windows"},
		{"c", "custom date range"},
		{"r", "refresh"},
		{"a s S d", "sources: add, sync, sync all, delete"},
		{"?", "help"},
		{"q", "quit"},
	}
	for _, b := range bindings {
		rows = append(rows, m.renderConfigRow(b[0], b[1]))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Codex Usage TUI"))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.Info()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	rows = append(rows, "")

	count := m.state.SourceCount()
	rows = append(rows, fmt.Sprintf("Remote sources: %s",
		styles.InfoTextStyle.Render(fmt.Sprintf("%d", count))))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
