package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/desklinehq/deskline/internal/types"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "connecting..."
	}

	statusLine := lipgloss.NewStyle().Foreground(statusColor).Render(m.statusLine())
	if m.notice != "" {
		statusLine = noticeStyle.Render(m.notice)
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.input.View(),
		statusLine,
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderThreadPanel(), main)
}

func (m *Model) renderHeader() string {
	thread := m.activeThread()
	if thread == nil {
		return ""
	}
	title := thread.Title
	label := statusLabel(thread.Status)
	if m.manager.InFlight(thread.ConversationID) {
		label = m.spinner.View() + " support is typing"
	}

	left := lipgloss.NewStyle().Bold(true).Render(truncateLine(title, m.mainWidth()-lipgloss.Width(label)-3))
	return alignStatusLine(left, captionStyle.Render(label), m.mainWidth())
}

func statusLabel(status types.ThreadStatus) string {
	switch status {
	case types.StatusInProgress:
		return "working"
	case types.StatusAwaitingInput:
		return "awaiting your reply"
	case types.StatusAwaitingConfirmation:
		return "confirm to continue"
	case types.StatusCompleted:
		return "resolved"
	case types.StatusHandoff:
		return "with a human agent"
	default:
		return ""
	}
}

func (m *Model) statusLine() string {
	left := fmt.Sprintf("%d/%d · %s", m.active+1, len(m.threads), m.principal.Email)
	right := ""
	if m.input.Value() == "" {
		right = "enter send · ctrl+j newline · ctrl+c quit"
	}
	return alignStatusLine(left, right, m.mainWidth())
}

func alignStatusLine(left, right string, width int) string {
	if width <= 0 || right == "" {
		return left
	}
	leftWidth := ansi.StringWidth(left)
	rightWidth := ansi.StringWidth(right)
	if leftWidth+rightWidth+1 > width {
		return left
	}
	spaces := width - leftWidth - rightWidth
	return left + strings.Repeat(" ", spaces) + right
}
