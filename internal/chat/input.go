package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desklinehq/deskline/internal/types"
)

const inputHeight = 3

func newInputModel() textarea.Model {
	input := textarea.New()
	input.CharLimit = 0
	input.ShowLineNumbers = false
	input.MaxHeight = inputHeight
	input.Placeholder = "Type a message and press enter..."
	input.SetHeight(inputHeight)
	input.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "› "
		}
		return "  "
	})
	input.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(accentColor)
	input.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(timeColor)
	input.Focus()
	return input
}

// inputLocked reports whether typing into the active thread is pointless:
// a send is already running or a human agent owns the conversation.
func (m *Model) inputLocked() bool {
	thread := m.activeThread()
	if thread == nil {
		return false
	}
	if thread.Status == types.StatusHandoff {
		return true
	}
	return m.manager.InFlight(thread.ConversationID)
}

func (m *Model) syncInputPlaceholder() {
	thread := m.activeThread()
	switch {
	case thread != nil && thread.Status == types.StatusHandoff:
		m.input.Placeholder = "A human agent has this conversation now"
	case thread != nil && m.manager.InFlight(thread.ConversationID):
		m.input.Placeholder = "Waiting for support to reply..."
	default:
		m.input.Placeholder = "Type a message and press enter..."
	}
}

// pendingButtons returns the quick-reply buttons of the latest assistant
// message, but only while the thread still awaits a confirmation.
func (m *Model) pendingButtons() []types.Button {
	thread := m.activeThread()
	if thread == nil || thread.Status != types.StatusAwaitingConfirmation {
		return nil
	}
	for i := len(thread.Messages) - 1; i >= 0; i-- {
		msg := thread.Messages[i]
		if msg.Role != types.RoleAssistant {
			continue
		}
		if msg.Pipeline == nil {
			return nil
		}
		return msg.Pipeline.Buttons
	}
	return nil
}

// insertButtonValue fills the input with the value of button n (1-based)
// when the input is empty. Returns true if a button was consumed.
func (m *Model) insertButtonValue(n int) bool {
	if strings.TrimSpace(m.input.Value()) != "" {
		return false
	}
	buttons := m.pendingButtons()
	if n < 1 || n > len(buttons) {
		return false
	}
	m.input.SetValue(buttons[n-1].Value)
	m.input.CursorEnd()
	return true
}
