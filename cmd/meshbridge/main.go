// Package main is the entry point for the meshbridge CLI.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/meshbridge/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
