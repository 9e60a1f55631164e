// Command waypost is the project tool: scaffolding, import manifest
// generation, plugin management and offline route listing.
package main

import (
	"os"

	"github.com/waypost-dev/waypost/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
