package command

import (
	"fmt"

	"github.com/desklinehq/deskline/internal/chat"
	"github.com/desklinehq/deskline/internal/session"
	"github.com/spf13/cobra"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive support chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return writeCommandError(cmd, fmt.Errorf("--json not supported for interactive chat"))
			}

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

			manager := session.NewManager(client, ctx.Store, principal.Email, ctx.Logger)
			manager.Bootstrap(cmd.Context())

			if threadNum, _ := cmd.Flags().GetInt("thread"); threadNum > 0 {
				if err := manager.SelectThread(threadNum - 1); err != nil {
					return writeCommandError(cmd, fmt.Errorf("no thread %d (have %d)", threadNum, manager.ThreadCount()))
				}
			}

			return chat.Run(chat.Options{
				Manager:   manager,
				Principal: *principal,
				ServerURL: ctx.ServerURL,
				Logger:    ctx.Logger,
			})
		},
	}

	cmd.Flags().Int("thread", 0, "open at thread N (1-based, as listed in the sidebar)")

	return cmd
}
