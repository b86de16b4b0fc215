// DocVault CLI
// Versioned document history with line diffs, audit trails, and restores
package main

import (
	"fmt"
	"os"

	"github.com/nainya/docvault/internal/cli"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands render their own errors before returning an ExitError;
		// anything else has not been shown yet.
		if !cli.IsExitError(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
