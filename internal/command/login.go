package command

import (
	"encoding/json"
	"fmt"

	"github.com/desklinehq/deskline/internal/auth"
	"github.com/desklinehq/deskline/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and restore conversations from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]

			password, err := resolvePassword(cmd, "Password")
			if err != nil {
				return writeCommandError(cmd, err)
			}

			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			client, err := ctx.NewGateway(nil)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			resp, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			principal := resp.Principal()
			if err := auth.Save(principal); err != nil {
				return writeCommandError(cmd, fmt.Errorf("save credentials: %w", err))
			}
			client.SetToken(principal.Token)

			// Rebuild local threads from the server transcript. Login
			// still succeeds when history is unavailable; the user
			// just starts from whatever is cached locally.
			manager := session.NewManager(client, ctx.Store, principal.Email, ctx.Logger)
			restoreErr := manager.RestoreFromServer(cmd.Context())
			if restoreErr != nil {
				ctx.Logger.Warn("restore history", zap.Error(restoreErr))
				manager.Bootstrap(cmd.Context())
			}

			if ctx.JSONMode {
				payload := map[string]any{
					"email":     principal.Email,
					"full_name": principal.FullName,
					"threads":   manager.ThreadCount(),
					"restored":  restoreErr == nil,
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Logged in as %s\n", successLabel("✓"), principal.Email)
			if restoreErr != nil {
				fmt.Fprintln(out, "Could not fetch server history; using local state.")
			} else {
				fmt.Fprintf(out, "Restored %d conversation(s). Run: %s chat\n", manager.ThreadCount(), AppName)
			}
			return nil
		},
	}

	cmd.Flags().String("password", "", "password (prompted when omitted)")

	return cmd
}
