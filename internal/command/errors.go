package command

import (
	"fmt"

	"github.com/desklinehq/deskline/internal/gateway"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold).SprintFunc()
	successLabel = color.New(color.FgGreen).SprintFunc()
	dimText      = color.New(color.Faint).SprintFunc()
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", errorLabel("Error:"), err.Error())

	if gateway.IsAuthError(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: your session may have expired. Try: %s login <email>\n", AppName)
	}

	return err
}
