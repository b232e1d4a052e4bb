// Package main is the benchctl entry point.
package main

import (
	"errors"
	"os"

	"github.com/cursorcult/benchctl/internal/cli"
	"github.com/cursorcult/benchctl/internal/cli/commands"
)

func main() {
	if err := cli.Execute(); err != nil {
		var exitErr *commands.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
