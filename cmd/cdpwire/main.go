package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/grantcarthew/cdpwire/internal/cli"
)

// formatCobraError converts verbose Cobra errors to user-friendly messages.
func formatCobraError(err error) string {
	msg := err.Error()

	// "accepts 1 arg(s), received 0"
	if strings.HasPrefix(msg, "accepts ") || strings.HasPrefix(msg, "requires at least ") {
		return msg + " (see --help)"
	}

	return msg
}

func main() {
	if err := cli.Execute(); err != nil {
		// Print error if not already printed by command handler
		if !cli.IsPrintedError(err) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", formatCobraError(err))
		}
		os.Exit(1)
	}
}
