// Package cli implements the waypost command-line interface: scaffolding,
// import manifest generation, plugin management and route listing.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/waypost-dev/waypost/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "waypost",
	Short: "Convention-driven route discovery for Go web services",
	Long: `Waypost turns lightweight route annotations into a registered route
table. Handlers declare themselves where they are written; discovery finds
every declaring module under the configured roots at startup, rejects
duplicates, and binds the table onto Echo, Gin or Fiber.

Quick start:
  waypost new domain users --bootstrap   Scaffold a domain with a controller
  waypost sync                           Generate the discovery import manifest
  waypost list routes                    Show the route table from source
  waypost plugins enable events          Enable a builtin plugin`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default waypost.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the effective configuration for a command.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// configFile is the file plugin edits apply to.
func configFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultFile
}
