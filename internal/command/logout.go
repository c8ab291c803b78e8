package command

import (
	"fmt"

	"github.com/desklinehq/deskline/internal/auth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials and local conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			if err := auth.Clear(); err != nil {
				return writeCommandError(cmd, fmt.Errorf("clear credentials: %w", err))
			}
			// The snapshot identifies the account's conversations, so
			// it goes with the credentials. Failure is non-fatal; the
			// next login overwrites it anyway.
			if err := ctx.Store.ClearSnapshot(); err != nil {
				ctx.Logger.Warn("clear snapshot", zap.Error(err))
			}

			if !ctx.JSONMode {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Logged out\n", successLabel("✓"))
			}
			return nil
		},
	}

	return cmd
}
