// anme-cli is a command-line client for an anmed daemon.
package main

import (
	"os"

	"github.com/avatarnftme/anme-mint/cmd/anme-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
