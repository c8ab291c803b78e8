package command

import (
	"encoding/json"
	"fmt"

	"github.com/desklinehq/deskline/internal/core"
	"github.com/desklinehq/deskline/internal/gateway"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set client configuration",
	}

	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd())

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the stored and effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, _ := cmd.Flags().GetBool("json")
			serverFlag, _ := cmd.Flags().GetString("server")

			config, err := core.ReadConfig()
			if err != nil {
				return writeCommandError(cmd, fmt.Errorf("read config: %w", err))
			}

			stored := ""
			if config != nil {
				stored = config.ServerURL
			}
			effective := core.ResolveServerURL(serverFlag)

			if jsonMode {
				payload := map[string]string{
					"server":           stored,
					"effective_server": effective,
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			if stored == "" {
				fmt.Fprintln(out, "server: (not set)")
			} else {
				fmt.Fprintf(out, "server: %s\n", stored)
			}
			fmt.Fprintf(out, "effective server: %s\n", effective)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (key: server)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if key != "server" {
				return writeCommandError(cmd, fmt.Errorf("unknown config key %q (only \"server\" is supported)", key))
			}

			normalized, err := gateway.NormalizeBaseURL(value)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			config, err := core.ReadConfig()
			if err != nil {
				return writeCommandError(cmd, fmt.Errorf("read config: %w", err))
			}
			if config == nil {
				config = &core.Config{}
			}
			config.ServerURL = normalized
			if err := core.WriteConfig(*config); err != nil {
				return writeCommandError(cmd, fmt.Errorf("write config: %w", err))
			}

			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{key: normalized})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set server = %s\n", normalized)
			return nil
		},
	}
}
