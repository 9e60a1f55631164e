package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/waypost-dev/waypost/internal/errors"
	"github.com/waypost-dev/waypost/internal/templates"
	"github.com/waypost-dev/waypost/pkg/waypost"
)

var (
	syncWatch   bool
	syncClean   bool
	syncOut     string
	syncPackage string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Generate the discovery import manifest",
	Long: `Sync walks the discovery roots, finds every module that declares routes
or controllers, and writes a manifest of blank imports that links them into
the binary. Run it after adding, moving or removing a handler module.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		diag := NewDiagnostics(verbose)
		if syncWatch {
			return runSyncWatch(diag)
		}
		return runSync(diag)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "keep running and regenerate on source changes")
	syncCmd.Flags().BoolVar(&syncClean, "clean", false, "remove the manifest when no module declares routes")
	syncCmd.Flags().StringVar(&syncOut, "out", "autogen_imports.go", "manifest file path")
	syncCmd.Flags().StringVar(&syncPackage, "package", "main", "package name for the manifest")
	rootCmd.AddCommand(syncCmd)
}

func runSync(diag *Diagnostics) error {
	cfg, err := loadConfig()
	if err != nil {
		return reportCLIError(diag, err)
	}
	walker := waypost.NewWalker(cfg.Discovery.Roots, waypost.WithWalkerLogger(cfg.Logger()))
	modules, err := walker.Walk()
	if err != nil {
		return reportCLIError(diag, err)
	}

	imports := manifestImports(modules)
	if len(imports) == 0 {
		if syncClean {
			if err := os.Remove(syncOut); err == nil {
				diag.Success("no declaring modules; removed %s", syncOut)
				return nil
			}
		}
		diag.Warn("no declaring modules found under %s", strings.Join(cfg.Discovery.Roots, ", "))
		return nil
	}

	src, err := templates.RenderManifest(templates.ManifestData{
		Package: syncPackage,
		Imports: imports,
	})
	if err != nil {
		return reportCLIError(diag, err)
	}
	if err := os.WriteFile(syncOut, []byte(src), 0o644); err != nil {
		return reportCLIError(diag, errors.WrapFileSystem("write", syncOut, err))
	}

	diag.Success("wrote %s with %d import(s)", syncOut, len(imports))
	for _, imp := range imports {
		diag.Debug("import %s", imp)
	}
	return nil
}

// manifestImports returns the sorted import paths of declaring modules. A
// declaring module without a resolvable import path is skipped; the runtime
// loaded-check will surface it if it goes missing from the binary.
func manifestImports(modules []waypost.Module) []string {
	var imports []string
	seen := make(map[string]bool)
	for _, mod := range modules {
		if !mod.Declares || mod.ImportPath == "" || seen[mod.ImportPath] {
			continue
		}
		seen[mod.ImportPath] = true
		imports = append(imports, mod.ImportPath)
	}
	sort.Strings(imports)
	return imports
}

// runSyncWatch regenerates the manifest whenever Go source under the roots
// changes. Events are debounced; editors fire several per save.
func runSyncWatch(diag *Diagnostics) error {
	if err := runSync(diag); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return reportCLIError(diag, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return reportCLIError(diag, err)
	}
	defer watcher.Close()

	for _, root := range cfg.Discovery.Roots {
		if err := watchTree(watcher, root); err != nil {
			return reportCLIError(diag, err)
		}
	}
	diag.Info("watching %s (ctrl-c to stop)", strings.Join(cfg.Discovery.Roots, ", "))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	const debounce = 300 * time.Millisecond
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories need their own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			if !strings.HasSuffix(event.Name, ".go") {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			if err := runSync(diag); err != nil {
				diag.Warn("sync failed; waiting for next change")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			diag.Warn("watch error: %v", err)
		case <-stop:
			diag.Info("stopped")
			return nil
		}
	}
}

// watchTree adds a directory and its subdirectories to the watcher,
// honoring the walker's exclusion rules.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
