// Command gdasql builds, validates, renders and stores SQL statement trees.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/GNOME/libgda-sub020/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands report their own failures; only usage and flag errors
		// reach here unprinted.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
