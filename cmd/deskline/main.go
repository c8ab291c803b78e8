package main

import (
	"fmt"
	"os"

	"github.com/desklinehq/deskline/internal/command"
)

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
