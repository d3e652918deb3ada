package sources

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/ui/styles"
)

var fieldLabels = [fieldCount]string{"Label", "Host", "Port", "User", "Path", "Password"}

// View renders the sources tab.
func (m *Model) View() string {
	if m.editing {
		return m.renderForm()
	}

	var sections []string
	sections = append(sections, styles.TitleStyle.Render("Remote Sources"))

	if len(m.sources) == 0 {
		sections = append(sections, styles.HelpStyle.Render("No sources configured. Press 'a' to add one."))
	} else {
		for i, src := range m.sources {
			sections = append(sections, m.renderSource(src, i == m.selected))
		}
	}

	sections = append(sections, "")
	sections = append(sections, styles.HelpStyle.Render("a: add · s: sync · S: sync all · d: delete"))

	return styles.DocStyle.Width(m.width).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderSource draws one source row with its last sync outcome.
func (m *Model) renderSource(src models.Source, selected bool) string {
	marker := "  "
	labelStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary)
	if selected {
		marker = styles.SelectedListItemStyle.Render("")
		labelStyle = labelStyle.Bold(true).Foreground(styles.Primary)
	}

	target := src.Host
	if src.User != "" {
		target = src.User + "@" + src.Host
	}
	if src.Port != 0 && src.Port != 22 {
		target = fmt.Sprintf("%s:%d", target, src.Port)
	}

	line := marker + labelStyle.Render(src.Label) + "  " +
		lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(target+":"+src.Path)

	var status string
	switch {
	case m.state.IsSyncing(src.ID):
		status = styles.InfoTextStyle.Render("syncing…")
	case src.LastError != nil:
		status = styles.ErrorTextStyle.Render("failed: " + truncate(*src.LastError, 60))
	case src.LastSync != nil:
		status = styles.SuccessTextStyle.Render("synced " + src.LastSync.Format("Jan 2 15:04"))
	default:
		status = styles.HelpStyle.Render("never synced")
	}

	return line + "\n    " + status
}

// renderForm draws the add-source form.
func (m *Model) renderForm() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Add source"))
	rows = append(rows, "")

	for i, in := range m.inputs {
		style := styles.BlurredStyle
		if i == m.focus {
			style = styles.FocusedStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%-10s", fieldLabels[i]))+in.View())
	}

	rows = append(rows, "")
	if m.formErr != "" {
		rows = append(rows, styles.ErrorTextStyle.Render(m.formErr))
		rows = append(rows, "")
	}
	rows = append(rows, styles.HelpStyle.Render("enter: next/save · tab: switch field · esc: cancel"))

	return styles.DocStyle.Render(
		styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "…"
}
