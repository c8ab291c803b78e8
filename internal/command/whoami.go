package command

import (
	"encoding/json"
	"fmt"

	"github.com/desklinehq/deskline/internal/auth"
	"github.com/desklinehq/deskline/internal/core"
	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command.
func NewWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, _ := cmd.Flags().GetBool("json")
			serverFlag, _ := cmd.Flags().GetString("server")

			principal, err := auth.Load()
			if err != nil {
				return writeCommandError(cmd, fmt.Errorf("read credentials: %w", err))
			}

			if jsonMode {
				payload := map[string]any{
					"logged_in": principal != nil,
					"server":    core.ResolveServerURL(serverFlag),
				}
				if principal != nil {
					payload["email"] = principal.Email
					payload["full_name"] = principal.FullName
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			if principal == nil {
				fmt.Fprintf(out, "Not logged in. Run: %s login <email>\n", AppName)
				return nil
			}
			if principal.FullName != "" {
				fmt.Fprintf(out, "%s <%s>\n", principal.FullName, principal.Email)
			} else {
				fmt.Fprintln(out, principal.Email)
			}
			fmt.Fprintf(out, "Server: %s\n", core.ResolveServerURL(serverFlag))
			return nil
		},
	}

	return cmd
}
