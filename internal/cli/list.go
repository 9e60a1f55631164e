package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/waypost-dev/waypost/internal/errors"
	"github.com/waypost-dev/waypost/pkg/waypost"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Inspect routes and plugins",
}

var listRoutesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show the route table recovered from source",
	Long: `List routes scans the discovery roots without running the application and
prints every declaration it can recover. Declarations whose method or path
is computed at runtime are marked dynamic. Statically detectable duplicates
make the command fail.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListRoutes()
	},
}

var listPluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Show registered plugins and their enabled state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPluginsList()
	},
}

func init() {
	listCmd.AddCommand(listRoutesCmd, listPluginsCmd)
	rootCmd.AddCommand(listCmd)
}

type staticEntry struct {
	route  waypost.StaticRoute
	module string
	full   string
}

func runListRoutes() error {
	diag := NewDiagnostics(verbose)
	cfg, err := loadConfig()
	if err != nil {
		return reportCLIError(diag, err)
	}
	walker := waypost.NewWalker(cfg.Discovery.Roots, waypost.WithWalkerLogger(cfg.Logger()))
	modules, err := walker.Walk()
	if err != nil {
		return reportCLIError(diag, err)
	}

	var entries []staticEntry
	for _, mod := range modules {
		for _, r := range mod.StaticRoutes {
			entries = append(entries, staticEntry{route: r, module: mod.Rel, full: r.FullPath()})
		}
	}
	if len(entries) == 0 {
		diag.Warn("no route declarations found under the discovery roots")
		return nil
	}

	tw := tabwriter.NewWriter(diag.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tGROUP\tMODULE\tSOURCE")
	for _, e := range entries {
		method := string(e.route.Method)
		path := e.full
		if e.route.Dynamic {
			if method == "" {
				method = "?"
			}
			if e.route.Path == "" {
				path = "(dynamic)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s:%d\n",
			method, path, e.route.Group, e.module, e.route.File, e.route.Line)
	}
	tw.Flush()
	diag.Info("%d route declaration(s)", len(entries))

	if err := staticDuplicates(entries); err != nil {
		return reportCLIError(diag, err)
	}
	return nil
}

// staticDuplicates applies the same identity rule the runtime aggregator
// enforces: two routes collide when their methods and path shapes match,
// parameter names and types aside. Dynamic declarations cannot be checked
// here; the runtime check remains authoritative.
func staticDuplicates(entries []staticEntry) error {
	type key struct {
		method   waypost.HTTPMethod
		identity string
	}
	seen := make(map[key]staticEntry)
	for _, e := range entries {
		if e.route.Dynamic {
			continue
		}
		identity, err := waypost.RoutePath(e.full).Identity()
		if err != nil {
			return errors.Wrap(errors.ScanErrorCode, err, "invalid route path %q at %s:%d",
				e.full, e.route.File, e.route.Line)
		}
		k := key{method: e.route.Method, identity: identity}
		if first, dup := seen[k]; dup {
			return errors.New(errors.ValidationErrorCode,
				"duplicate route %s %s declared at %s:%d and %s:%d",
				e.route.Method, e.full,
				first.route.File, first.route.Line,
				e.route.File, e.route.Line)
		}
		seen[k] = e
	}
	return nil
}
