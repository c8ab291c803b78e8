package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderThreadPanel() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("236")).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(timeColor)

	lines := []string{headerStyle.Render(" Conversations "), ""}

	for i, thread := range m.threads {
		title := thread.Title
		if title == "" {
			title = fmt.Sprintf("Chat %d", i+1)
		}
		label := fmt.Sprintf("%d %s", i+1, title)
		label = truncateLine(label, threadPanelWidth-4)

		marks := ""
		if m.manager.InFlight(thread.ConversationID) {
			marks = " " + m.spinner.View()
		} else if glyph := statusGlyph(thread.Status); glyph != "" {
			marks = " " + glyph
		}

		style := itemStyle
		if i == m.active {
			style = activeStyle
		}
		lines = append(lines, style.Render(" "+label)+marks)
	}

	// Pad so the hint lines sit at the bottom of the panel.
	if m.height > 0 {
		for len(lines) < m.height-3 {
			lines = append(lines, "")
		}
	}
	lines = append(lines,
		hintStyle.Render(" ctrl+n new"),
		hintStyle.Render(" ctrl+d delete"),
		hintStyle.Render(" alt+↑/↓ switch"))

	content := strings.Join(lines, "\n")
	return lipgloss.NewStyle().Width(threadPanelWidth).Render(content)
}

func truncateLine(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= maxLen {
		return value
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
