package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/waypost-dev/waypost/internal/config"
	"github.com/waypost-dev/waypost/internal/errors"
	"github.com/waypost-dev/waypost/pkg/waypost"

	_ "github.com/waypost-dev/waypost/pkg/waypost/plugins"
)

var pluginsForce bool

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage plugins in the config file",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show registered plugins and their enabled state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPluginsList()
	},
}

var pluginsEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPluginsEnable(args[0])
	},
}

var pluginsDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPluginsDisable(args[0])
	},
}

func init() {
	pluginsEnableCmd.Flags().BoolVar(&pluginsForce, "force", false, "enable even when the plugin is not registered in this build")
	pluginsCmd.AddCommand(pluginsListCmd, pluginsEnableCmd, pluginsDisableCmd)
	rootCmd.AddCommand(pluginsCmd)
}

func runPluginsList() error {
	diag := NewDiagnostics(verbose)
	enabled, err := config.EnabledPlugins(configFile())
	if err != nil {
		return reportCLIError(diag, err)
	}

	registered := waypost.PluginNames()
	if len(registered) == 0 && len(enabled) == 0 {
		diag.Info("no plugins registered")
		return nil
	}

	diag.Info("plugins:")
	for _, name := range registered {
		state := "disabled"
		if slices.Contains(enabled, name) {
			state = "enabled"
		}
		diag.List("%-12s %s", name, state)
	}
	for _, name := range enabled {
		if !slices.Contains(registered, name) {
			diag.List("%-12s enabled (not registered in this build)", name)
		}
	}
	return nil
}

func runPluginsEnable(name string) error {
	diag := NewDiagnostics(verbose)
	if _, ok := waypost.LookupPlugin(name); !ok && !pluginsForce {
		return reportCLIError(diag, errors.NewValidation("unknown plugin %q", name).
			WithHint("registered plugins: %v", waypost.PluginNames()).
			WithHint("use --force to enable a plugin registered by your application"))
	}
	if err := config.EnablePlugin(configFile(), name); err != nil {
		return reportCLIError(diag, err)
	}
	diag.Success("enabled plugin %s in %s", name, configFile())
	return nil
}

func runPluginsDisable(name string) error {
	diag := NewDiagnostics(verbose)
	if err := config.DisablePlugin(configFile(), name); err != nil {
		return reportCLIError(diag, err)
	}
	diag.Success("disabled plugin %s in %s", name, configFile())
	return nil
}
