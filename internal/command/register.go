package command

import (
	"encoding/json"
	"fmt"

	"github.com/desklinehq/deskline/internal/auth"
	"github.com/desklinehq/deskline/internal/session"
	"github.com/spf13/cobra"
)

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			fullName, _ := cmd.Flags().GetString("name")

			password, err := resolvePassword(cmd, "Password")
			if err != nil {
				return writeCommandError(cmd, err)
			}
			// Only prompted input needs confirming; --password is
			// deliberate.
			if flagValue, _ := cmd.Flags().GetString("password"); flagValue == "" {
				confirm, err := promptPassword(cmd, "Confirm password")
				if err != nil {
					return writeCommandError(cmd, fmt.Errorf("read password: %w", err))
				}
				if confirm != password {
					return writeCommandError(cmd, fmt.Errorf("passwords do not match"))
				}
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

			resp, err := client.Register(cmd.Context(), email, password, fullName)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			principal := resp.Principal()
			if err := auth.Save(principal); err != nil {
				return writeCommandError(cmd, fmt.Errorf("save credentials: %w", err))
			}
			client.SetToken(principal.Token)

			// A fresh account has no history; Bootstrap creates the
			// first blank thread.
			manager := session.NewManager(client, ctx.Store, principal.Email, ctx.Logger)
			manager.Bootstrap(cmd.Context())

			if ctx.JSONMode {
				payload := map[string]any{
					"email":     principal.Email,
					"full_name": principal.FullName,
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Account created for %s. Run: %s chat\n",
				successLabel("✓"), principal.Email, AppName)
			return nil
		},
	}

	cmd.Flags().String("name", "", "full name shown to support agents")
	cmd.Flags().String("password", "", "password (prompted when omitted)")

	return cmd
}
