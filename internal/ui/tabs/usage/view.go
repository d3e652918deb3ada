package usage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/m-ruiz/codex-usage-tui/internal/chart"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/components"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/styles"
)

var (
	activeWindowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(styles.Primary).
				Padding(0, 1)

	inactiveWindowStyle = lipgloss.NewStyle().
				Foreground(styles.TextSecondary).
				Padding(0, 1)

	statStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	dimStyle  = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// View renders the usage tab: selector, stat line, chart, trend panel.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderSelector())
	b.WriteString("\n")
	b.WriteString(m.renderStatLine())
	b.WriteString("\n\n")

	if m.editing {
		b.WriteString(m.renderForm())
		return b.String()
	}

	if m.controller.Active() == models.WindowCustom && m.controller.Dataset() == nil {
		b.WriteString(dimStyle.Render("No custom range applied. Press 'c' to pick one."))
		return b.String()
	}

	b.WriteString(m.controller.View())

	if trendH := m.height - 3 - m.chartHeight(); trendH >= trendHeight {
		ds := m.controller.Dataset()
		if ds != nil {
			b.WriteString("\n")
			b.WriteString(components.RenderUptimeTrend(
				ds.ActivityBuckets, m.width-10, trendH-3, "active %"))
		}
	}

	return b.String()
}

// renderSelector draws the seven window keys with the active one highlighted.
func (m *Model) renderSelector() string {
	var parts []string
	for _, k := range models.WindowKeys() {
		if k == m.controller.Active() {
			parts = append(parts, activeWindowStyle.Render(k.Label()))
		} else {
			parts = append(parts, inactiveWindowStyle.Render(k.Label()))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if m.controller.Loading() {
		line += "  " + m.spinner.ViewWithLabel()
	}
	return line
}

// renderStatLine shows totals for the active dataset, or the inline error.
func (m *Model) renderStatLine() string {
	if errText := m.controller.Err(); errText != "" {
		return styles.ErrorTextStyle.Render("⚠ " + errText)
	}

	ds := m.controller.Dataset()
	if ds == nil {
		return dimStyle.Render("No data yet")
	}

	parts := []string{
		statStyle.Render(chart.FormatTokens(float64(ds.TokensTotal)) + " tokens"),
	}
	if ds.UptimePercent != nil {
		parts = append(parts, statStyle.Render(fmt.Sprintf("%.1f%% active", *ds.UptimePercent)))
	}
	if ds.CostTotal != nil {
		cost := fmt.Sprintf("$%.2f", *ds.CostTotal)
		if ds.CostPartial {
			cost += "+"
		}
		parts = append(parts, statStyle.Render(cost))
	}
	parts = append(parts, dimStyle.Render(fmt.Sprintf("%d files", ds.FilesScanned)))
	if ds.BadLines > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d bad lines", ds.BadLines)))
	}

	return strings.Join(parts, dimStyle.Render("  ·  "))
}

// renderForm draws the custom range date inputs.
func (m *Model) renderForm() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Custom range"))
	rows = append(rows, "")
	rows = append(rows, m.renderField("Start", m.startInput.View(), !m.focusEnd))
	rows = append(rows, m.renderField("End", m.endInput.View(), m.focusEnd))
	rows = append(rows, "")
	if m.formErr != "" {
		rows = append(rows, styles.ErrorTextStyle.Render(m.formErr))
		rows = append(rows, "")
	}
	rows = append(rows, dimStyle.Render("enter: next/apply · tab: switch field · esc: cancel"))

	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderField(label, input string, focused bool) string {
	style := styles.BlurredStyle
	if focused {
		style = styles.FocusedStyle
	}
	return style.Render(fmt.Sprintf("%-6s", label)) + input
}
