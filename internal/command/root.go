package command

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const AppName = "deskline"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Deskline - terminal client for agent-powered support",
		Long:          "Deskline is a terminal chat client for a multi-agent customer support backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("server", "", "backend base URL (overrides config and environment)")
	cmd.PersistentFlags().String("state-dir", "", "directory for the local database and logs")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().Bool("debug", false, "log at debug level")

	cmd.AddCommand(
		NewLoginCmd(),
		NewRegisterCmd(),
		NewLogoutCmd(),
		NewWhoamiCmd(),
		NewChatCmd(),
		NewThreadsCmd(),
		NewHistoryCmd(),
		NewConfigCmd(),
	)

	return cmd
}

func Execute() error {
	// A .env next to the binary may name BACKEND_URL; missing files
	// are fine.
	_ = godotenv.Load()
	return NewRootCmd(Version).Execute()
}
