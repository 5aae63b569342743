package main

import (
	"os"

	"github.com/datascope-io/datascope/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
