package waypost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const declaringSource = `package alpha

import (
	"net/http"

	"github.com/waypost-dev/waypost/pkg/waypost"
)

var alphaController = waypost.Controller("/alpha", waypost.WithGroup("ALPHA"))

var _ = alphaController.Get("/{id:int}", show)

var _ = waypost.Post("/alpha/create", create, waypost.WithGroup("ADMIN"))

func show(w http.ResponseWriter, r *http.Request)   {}
func create(w http.ResponseWriter, r *http.Request) {}
`

const plainSource = `package beta

func Helper() int { return 42 }
`

// writeTree lays out a discovery fixture: go.mod at the root, files keyed by
// relative path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/demo\n\ngo 1.25\n"), 0o644))
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newTestWalker(dir string) *Walker {
	return NewWalker(
		[]string{filepath.Join(dir, "app", "domains")},
		WithModuleFile(filepath.Join(dir, "go.mod")),
	)
}

func TestWalkerFindsModulesInLexicalOrder(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/zeta/handlers.go":  plainSource,
		"app/domains/alpha/handlers.go": declaringSource,
		"app/domains/mid/handlers.go":   plainSource,
	})

	modules, err := newTestWalker(dir).Walk()
	require.NoError(t, err)
	require.Len(t, modules, 3)
	assert.Equal(t, "app/domains/alpha", modules[0].Rel)
	assert.Equal(t, "app/domains/mid", modules[1].Rel)
	assert.Equal(t, "app/domains/zeta", modules[2].Rel)
}

func TestWalkerDetectsDeclaringModules(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/alpha/handlers.go": declaringSource,
		"app/domains/beta/helpers.go":   plainSource,
	})

	modules, err := newTestWalker(dir).Walk()
	require.NoError(t, err)
	require.Len(t, modules, 2)

	alpha, beta := modules[0], modules[1]
	assert.True(t, alpha.Declares)
	require.Len(t, alpha.StaticRoutes, 2)
	assert.False(t, beta.Declares)
	assert.Empty(t, beta.StaticRoutes)
}

func TestWalkerResolvesImportPaths(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/alpha/handlers.go": declaringSource,
	})

	modules, err := newTestWalker(dir).Walk()
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "example.com/demo/app/domains/alpha", modules[0].ImportPath)
}

func TestWalkerSkipRules(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/alpha/handlers.go":          declaringSource,
		"app/domains/alpha/handlers_test.go":     "package alpha\n\nbroken {",
		"app/domains/alpha/_draft.go":            "not even go",
		"app/domains/testdata/fixture.go":        "also { not go",
		"app/domains/.hidden/handlers.go":        plainSource,
		"app/domains/_private/handlers.go":       plainSource,
		"app/domains/beta/notes.txt":             "not a go file",
		"app/domains/beta/sub/.skip/handlers.go": plainSource,
	})

	modules, err := newTestWalker(dir).Walk()
	require.NoError(t, err)
	require.Len(t, modules, 1, "test files, private files and excluded dirs never form modules")
	assert.Equal(t, "app/domains/alpha", modules[0].Rel)
	require.Len(t, modules[0].GoFiles, 1)
}

func TestWalkerParseFailureIsImportError(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/broken/handlers.go": "package broken\n\nfunc (",
	})

	_, err := newTestWalker(dir).Walk()
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, "app/domains/broken", importErr.Module)
	assert.Contains(t, importErr.File, "handlers.go")
}

func TestWalkerMissingRootFails(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWalker([]string{filepath.Join(dir, "no-such-root")}).Walk()
	assert.Error(t, err)
}

func TestWalkerOverlappingRootsVisitOnce(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/alpha/handlers.go": declaringSource,
	})
	root := filepath.Join(dir, "app", "domains")
	walker := NewWalker([]string{root, root}, WithModuleFile(filepath.Join(dir, "go.mod")))

	modules, err := walker.Walk()
	require.NoError(t, err)
	assert.Len(t, modules, 1)
}

func TestVerifyPassesWhenModuleLoaded(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/alpha/handlers.go": declaringSource,
	})
	walker := newTestWalker(dir)
	modules, err := walker.Walk()
	require.NoError(t, err)

	reg := NewRegistry()
	addDescriptor(t, reg, &RouteDescriptor{
		Method: GET, Path: RoutePath("/alpha/{id:int}"), Owner: OwnerFunction,
		Handler:    noopHandler,
		SourceFile: filepath.Join(modules[0].Dir, "handlers.go"),
	})
	reg.Freeze()

	assert.NoError(t, walker.Verify(reg, modules))
}

func TestVerifyFailsForUnloadedDeclaringModule(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/alpha/handlers.go": declaringSource,
	})
	walker := newTestWalker(dir)
	modules, err := walker.Walk()
	require.NoError(t, err)

	// Nothing captured: the module's annotations never ran, as when its
	// blank import is missing from the manifest.
	reg := NewRegistry()
	reg.Freeze()

	err = walker.Verify(reg, modules)
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, "app/domains/alpha", importErr.Module)
	assert.Contains(t, err.Error(), "waypost sync")
}

func TestVerifyIgnoresNonDeclaringModules(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/beta/helpers.go": plainSource,
	})
	walker := newTestWalker(dir)
	modules, err := walker.Walk()
	require.NoError(t, err)

	reg := NewRegistry()
	reg.Freeze()
	assert.NoError(t, walker.Verify(reg, modules))
}

func TestAttributeModule(t *testing.T) {
	modules := testModules()

	mod, ok := AttributeModule(modules, "/src/app/domains/billing/routes.go")
	require.True(t, ok)
	assert.Equal(t, "app/domains/billing", mod.Rel)

	// Attribution is per directory, not per subtree.
	_, ok = AttributeModule(modules, "/src/app/domains/billing/nested/routes.go")
	assert.False(t, ok)

	_, ok = AttributeModule(modules, "/elsewhere/routes.go")
	assert.False(t, ok)
}
