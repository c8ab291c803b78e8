// Package history rebuilds conversation threads from the flat
// transcript the backend stores per user. The server returns records
// in chronological order tagged only with a conversation id, so
// structure (threads, titles) is derived client-side.
package history

import (
	"time"

	"github.com/desklinehq/deskline/internal/core"
	"github.com/desklinehq/deskline/internal/types"
)

// Reconcile groups a flat transcript into threads in first-seen order
// and returns them with the index that should become active: the last
// thread, since the server lists the most recently touched
// conversation last. Empty input yields no threads; the caller is
// responsible for creating a fresh thread in that case.
//
// The transcript carries no per-message times, so restored messages
// share a synthetic timestamp taken at reconcile time.
func Reconcile(records []types.HistoryRecord) ([]types.Thread, int) {
	now := time.Now().UnixMilli()

	indexByID := make(map[string]int)
	titled := make(map[string]bool)
	var threads []types.Thread

	for _, record := range records {
		if record.ConversationID == "" {
			continue
		}

		idx, seen := indexByID[record.ConversationID]
		if !seen {
			idx = len(threads)
			indexByID[record.ConversationID] = idx
			threads = append(threads, types.Thread{
				ConversationID: record.ConversationID,
				Title:          core.PlaceholderTitle(idx + 1),
				Messages:       []types.Message{},
				Status:         types.StatusActive,
				CreatedAt:      now,
			})
		}

		thread := &threads[idx]
		thread.Messages = append(thread.Messages, types.Message{
			Role:    parseRole(record.Role),
			Content: record.Content,
			TS:      now,
		})

		// A thread is titled once, by its opening user turn. The
		// window is two messages so a lone assistant greeting cannot
		// block the first real user message from naming the thread.
		if !titled[record.ConversationID] && len(thread.Messages) <= 2 && record.Role == string(types.RoleUser) {
			thread.Title = core.DeriveThreadTitle(record.Content)
			titled[record.ConversationID] = true
		}
	}

	if len(threads) == 0 {
		return nil, 0
	}
	return threads, len(threads) - 1
}

// parseRole keeps unknown roles verbatim rather than guessing; the
// renderer treats anything that is not the user as an agent turn.
func parseRole(raw string) types.Role {
	switch raw {
	case string(types.RoleUser):
		return types.RoleUser
	case string(types.RoleAssistant):
		return types.RoleAssistant
	default:
		return types.Role(raw)
	}
}
