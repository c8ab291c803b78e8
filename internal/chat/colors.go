package chat

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desklinehq/deskline/internal/types"
)

var (
	userColor      = lipgloss.Color("36")  // teal
	assistantColor = lipgloss.Color("111") // periwinkle
	metaColor      = lipgloss.Color("244") // dim grey
	timeColor      = lipgloss.Color("240")
	statusColor    = lipgloss.Color("244")
	accentColor    = lipgloss.Color("212") // pink, active selections
	errorColor     = lipgloss.Color("203")
	warnColor      = lipgloss.Color("214") // amber, pending states
	okColor        = lipgloss.Color("42")  // green
	linkColor      = lipgloss.Color("81")
)

var (
	userLabelStyle      = lipgloss.NewStyle().Foreground(userColor).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(assistantColor).Bold(true)
	timeStyle           = lipgloss.NewStyle().Foreground(timeColor)
	captionStyle        = lipgloss.NewStyle().Foreground(metaColor).Italic(true)
	noticeStyle         = lipgloss.NewStyle().Foreground(errorColor)
	buttonStyle         = lipgloss.NewStyle().Foreground(warnColor)
	linkStyle           = lipgloss.NewStyle().Foreground(linkColor).Underline(true)
	welcomeStyle        = lipgloss.NewStyle().Foreground(metaColor).Italic(true)

	handoffBannerStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(errorColor).
				Foreground(errorColor).
				Padding(0, 1)

	orderBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(timeColor).
			Padding(0, 1)
)

func statusGlyph(status types.ThreadStatus) string {
	switch status {
	case types.StatusAwaitingConfirmation, types.StatusAwaitingInput:
		return lipgloss.NewStyle().Foreground(warnColor).Render("?")
	case types.StatusHandoff:
		return lipgloss.NewStyle().Foreground(errorColor).Render("!")
	case types.StatusCompleted:
		return lipgloss.NewStyle().Foreground(okColor).Render("✓")
	default:
		return ""
	}
}
