package chat

import (
	"strings"

	"github.com/desklinehq/deskline/internal/types"
	"github.com/gen2brain/beeep"
)

// notifyChanges fires a desktop notification when a reply lands on a thread
// the user is not looking at, and when any thread moves to handoff. Failures
// are ignored; notifications are nice to have.
func (m *Model) notifyChanges(threads []types.Thread, active int) {
	for i, thread := range threads {
		replies := countAssistantMessages(thread.Messages)
		prev, seen := m.seenReplies[thread.ConversationID]
		if seen && replies > prev && i != active {
			if last := lastAssistantMessage(thread.Messages); last != nil {
				_ = notifyReply(thread.Title, last.Content)
			}
		}
		m.seenReplies[thread.ConversationID] = replies

		prevStatus, tracked := m.seenStatus[thread.ConversationID]
		if tracked && prevStatus != types.StatusHandoff && thread.Status == types.StatusHandoff {
			_ = notifyHandoff(thread.Title)
		}
		m.seenStatus[thread.ConversationID] = thread.Status
	}
}

func lastAssistantMessage(messages []types.Message) *types.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleAssistant {
			return &messages[i]
		}
	}
	return nil
}

func notifyReply(threadTitle, body string) error {
	title := "deskline"
	if threadTitle != "" {
		title = "deskline · " + truncateNotification(threadTitle, 40)
	}
	return beeep.Notify(title, truncateNotification(body, 100), "")
}

func notifyHandoff(threadTitle string) error {
	title := "deskline"
	if threadTitle != "" {
		title = "deskline · " + truncateNotification(threadTitle, 40)
	}
	return beeep.Notify(title, "Transferring you to a human support agent.", "")
}

func truncateNotification(s string, maxLen int) string {
	// Collapse whitespace for notification
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
