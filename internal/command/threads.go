package command

import (
	"encoding/json"
	"fmt"

	"github.com/desklinehq/deskline/internal/types"
	"github.com/spf13/cobra"
)

// NewThreadsCmd creates the threads command.
func NewThreadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List locally cached conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			snap, err := ctx.Store.LoadSnapshot()
			if err != nil {
				return writeCommandError(cmd, fmt.Errorf("load snapshot: %w", err))
			}

			if ctx.JSONMode {
				payload := threadListPayload(snap)
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			if snap == nil || len(snap.Threads) == 0 {
				fmt.Fprintf(out, "No conversations yet. Run: %s chat\n", AppName)
				return nil
			}
			for i, thread := range snap.Threads {
				marker := " "
				if i == snap.Active {
					marker = "*"
				}
				line := fmt.Sprintf("%s %2d  %-32s %3d message(s)", marker, i+1, thread.Title, len(thread.Messages))
				if thread.Status != types.StatusActive && thread.Status != "" {
					line += "  " + dimText(string(thread.Status))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	return cmd
}

type threadSummary struct {
	Index          int                `json:"index"`
	ConversationID string             `json:"conversation_id"`
	Title          string             `json:"title"`
	Status         types.ThreadStatus `json:"status"`
	Messages       int                `json:"messages"`
	Active         bool               `json:"active"`
}

func snapshotOf(threads []types.Thread) *types.Snapshot {
	return &types.Snapshot{Threads: threads, Active: len(threads) - 1}
}

func threadListPayload(snap *types.Snapshot) []threadSummary {
	if snap == nil {
		return []threadSummary{}
	}
	out := make([]threadSummary, 0, len(snap.Threads))
	for i, thread := range snap.Threads {
		out = append(out, threadSummary{
			Index:          i + 1,
			ConversationID: thread.ConversationID,
			Title:          thread.Title,
			Status:         thread.Status,
			Messages:       len(thread.Messages),
			Active:         i == snap.Active,
		})
	}
	return out
}
