package waypost

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// Module is one directory of handler source discovered beneath a root. The
// walker visits modules in a deterministic order: roots in the configured
// order, directories lexicographically within a root.
type Module struct {
	// Dir is the absolute directory path.
	Dir string

	// Rel is the module path relative to the repository, used as the
	// source-module label in diagnostics.
	Rel string

	// ImportPath is the Go import path resolved from go.mod.
	ImportPath string

	// Root is the discovery root the module was found under.
	Root string

	// GoFiles are the eligible source files, lexicographic.
	GoFiles []string

	// Declares reports whether any file in the module declares routes or
	// controllers through the capture API.
	Declares bool

	// StaticRoutes are the declarations recovered from source, used by the
	// CLI for offline route listing and by sync for manifest generation.
	StaticRoutes []StaticRoute
}

// Walker locates every handler module beneath the configured roots. Roots
// are walked independently, in the given order; a module visited through two
// overlapping roots is processed once, at its first position.
type Walker struct {
	roots   []string
	logger  *slog.Logger
	modFile string
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithWalkerLogger sets the logger for walk diagnostics.
func WithWalkerLogger(l *slog.Logger) WalkerOption {
	return func(w *Walker) { w.logger = l }
}

// WithModuleFile overrides go.mod auto-detection for import path
// resolution.
func WithModuleFile(path string) WalkerOption {
	return func(w *Walker) { w.modFile = path }
}

// NewWalker returns a walker over the given roots.
func NewWalker(roots []string, opts ...WalkerOption) *Walker {
	w := &Walker{roots: roots, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk visits every module beneath the roots in deterministic order, parses
// its source, and records its declarations. The first module that fails to
// parse halts the walk: a module the walker cannot read could be a
// controller silently dropped from the route table.
func (w *Walker) Walk() ([]Module, error) {
	modPath, modDir, err := w.resolveModule()
	if err != nil {
		return nil, err
	}

	var modules []Module
	visited := make(map[string]bool)

	for _, root := range w.roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve discovery root %q: %w", root, err)
		}
		info, err := os.Stat(absRoot)
		if err != nil {
			return nil, fmt.Errorf("discovery root %q: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("discovery root %q is not a directory", root)
		}

		// WalkDir visits entries in lexical order, which is what makes
		// duplicate-detection messages and registration order reproducible.
		dirs, err := collectModuleDirs(absRoot)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			if visited[dir.path] {
				continue
			}
			visited[dir.path] = true

			rel := moduleRel(modDir, dir.path)
			mod := Module{
				Dir:     dir.path,
				Rel:     rel,
				Root:    root,
				GoFiles: dir.files,
			}
			if modPath != "" {
				mod.ImportPath = moduleImportPath(modPath, modDir, dir.path)
			}

			static, err := scanModuleSource(dir.path, dir.files)
			if err != nil {
				return nil, &ImportError{Module: rel, File: errFile(err), Err: err}
			}
			mod.StaticRoutes = static
			mod.Declares = len(static) > 0

			w.logger.Debug("module discovered",
				"module", mod.Rel,
				"import_path", mod.ImportPath,
				"files", len(mod.GoFiles),
				"declares", mod.Declares,
			)
			modules = append(modules, mod)
		}
	}

	w.logger.Info("discovery walk complete",
		"roots", len(w.roots),
		"modules", len(modules),
		"declaring", countDeclaring(modules),
	)
	return modules, nil
}

// Verify checks that every declaring module actually produced descriptors in
// the registry. A module that declares routes in source but captured nothing
// was never linked into the binary; treating that as fatal is what keeps a
// missing blank import from becoming a silent route loss.
func (w *Walker) Verify(reg *DiscoveryRegistry, modules []Module) error {
	var files []string
	for _, d := range reg.Routes() {
		files = append(files, d.SourceFile)
	}
	for _, d := range reg.Controllers() {
		files = append(files, d.SourceFile)
	}

	for _, mod := range modules {
		if !mod.Declares {
			continue
		}
		loaded := false
		for _, f := range files {
			if fileInDir(f, mod.Dir) {
				loaded = true
				break
			}
		}
		if !loaded {
			return &ImportError{
				Module: mod.Rel,
				Err: fmt.Errorf("module declares %d route(s) but was never loaded; "+
					"add it to the import manifest (run `waypost sync`)", len(mod.StaticRoutes)),
			}
		}
	}
	return nil
}

// AttributeModule maps a descriptor's source file to the module it was
// declared in.
func AttributeModule(modules []Module, file string) (Module, bool) {
	for _, mod := range modules {
		if fileInDir(file, mod.Dir) {
			return mod, true
		}
	}
	return Module{}, false
}

// resolveModule locates go.mod and returns the module path and its
// directory. Discovery still works without one; modules then carry no
// import path and sync cannot generate a manifest.
func (w *Walker) resolveModule() (string, string, error) {
	modFile := w.modFile
	if modFile == "" {
		start := "."
		if len(w.roots) > 0 {
			start = w.roots[0]
		}
		found, err := findGoMod(start)
		if err != nil {
			return "", "", nil
		}
		modFile = found
	}
	data, err := os.ReadFile(modFile)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", modFile, err)
	}
	f, err := modfile.ParseLax(modFile, data, nil)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", modFile, err)
	}
	if f.Module == nil {
		return "", "", fmt.Errorf("%s has no module directive", modFile)
	}
	abs, err := filepath.Abs(filepath.Dir(modFile))
	if err != nil {
		return "", "", err
	}
	return f.Module.Mod.Path, abs, nil
}

// findGoMod walks upward from dir looking for go.mod.
func findGoMod(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(abs, "go.mod")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		abs = parent
	}
}

type moduleDir struct {
	path  string
	files []string
}

// collectModuleDirs gathers directories containing eligible Go files, in
// lexical order.
func collectModuleDirs(root string) ([]moduleDir, error) {
	byDir := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && excludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !eligibleGoFile(d.Name()) {
			return nil
		}
		dir := filepath.Dir(path)
		byDir[dir] = append(byDir[dir], path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	dirs := make([]moduleDir, 0, len(byDir))
	for dir, files := range byDir {
		sort.Strings(files)
		dirs = append(dirs, moduleDir{path: dir, files: files})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].path < dirs[j].path })
	return dirs, nil
}

// excludedDir reports directories the walker never descends into.
func excludedDir(name string) bool {
	return name == "testdata" ||
		strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, "_")
}

// eligibleGoFile reports whether a file participates in discovery. Test
// files and private (underscore/dot prefixed) files do not.
func eligibleGoFile(name string) bool {
	if !strings.HasSuffix(name, ".go") {
		return false
	}
	if strings.HasSuffix(name, "_test.go") {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	return true
}

func moduleRel(modDir, dir string) string {
	if modDir == "" {
		return filepath.ToSlash(dir)
	}
	rel, err := filepath.Rel(modDir, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}

func moduleImportPath(modPath, modDir, dir string) string {
	rel, err := filepath.Rel(modDir, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	if rel == "." {
		return modPath
	}
	return modPath + "/" + filepath.ToSlash(rel)
}

// fileInDir reports whether file sits directly in dir. A module is a single
// directory, not a subtree, so nesting does not blur attribution.
func fileInDir(file, dir string) bool {
	return filepath.Dir(file) == dir
}

func countDeclaring(modules []Module) int {
	n := 0
	for _, m := range modules {
		if m.Declares {
			n++
		}
	}
	return n
}

// errFile extracts a file path from a scan error when one is attached.
func errFile(err error) string {
	var se *scanError
	if errors.As(err, &se) {
		return se.file
	}
	return ""
}
