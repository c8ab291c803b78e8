package command

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// promptPassword reads a password without echo when stdin is a
// terminal, falling back to a plain line read so piped input still
// works in scripts.
func promptPassword(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// resolvePassword honors a --password flag for scripting and prompts
// otherwise.
func resolvePassword(cmd *cobra.Command, label string) (string, error) {
	if flagValue, _ := cmd.Flags().GetString("password"); flagValue != "" {
		return flagValue, nil
	}
	password, err := promptPassword(cmd, label)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}
