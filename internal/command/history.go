package command

import (
	"encoding/json"
	"fmt"

	"github.com/desklinehq/deskline/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command. It reads the server
// transcript without touching local state, so it doubles as a dry run
// of what login would restore.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show server-side conversation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := requirePrincipal()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			client, err := ctx.NewGateway(principal)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			records, err := client.History(cmd.Context(), principal.Email)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			threads, _ := history.Reconcile(records)

			if ctx.JSONMode {
				payload := map[string]any{
					"records": len(records),
					"threads": threadListPayload(snapshotOf(threads)),
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			if len(threads) == 0 {
				fmt.Fprintln(out, "The server has no conversations for this account.")
				return nil
			}
			fmt.Fprintf(out, "%d conversation(s) on the server:\n", len(threads))
			for i, thread := range threads {
				fmt.Fprintf(out, "  %2d  %-32s %3d message(s)\n", i+1, thread.Title, len(thread.Messages))
			}
			return nil
		},
	}

	return cmd
}
