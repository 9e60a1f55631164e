package waypost

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAdapter(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestNewUnknownPluginFailsConstruction(t *testing.T) {
	_, err := New(Config{Plugins: []string{"never-registered"}}, newFakeAdapter())
	var pluginErr *PluginError
	require.ErrorAs(t, err, &pluginErr)
}

// discoveredApp builds an app over a one-module source tree whose registry
// already holds the module's captured routes.
func discoveredApp(t *testing.T, adapter RouterAdapter) *App {
	t.Helper()
	dir := writeTree(t, map[string]string{
		"app/domains/alpha/handlers.go": declaringSource,
	})
	moduleDir := filepath.Join(dir, "app", "domains", "alpha")

	reg := NewRegistry()
	ctrl := &ControllerDescriptor{BasePath: "/alpha", Group: "ALPHA", Name: "alpha"}
	require.NoError(t, reg.addController(ctrl))
	addDescriptor(t, reg, &RouteDescriptor{
		Method: GET, Path: "/{id:int}", Owner: OwnerMethod, Controller: ctrl,
		Handler:    noopHandler,
		SourceFile: filepath.Join(moduleDir, "handlers.go"), SourceLine: 11,
	})
	addDescriptor(t, reg, &RouteDescriptor{
		Method: POST, Path: "/alpha/create", Group: "ADMIN", Owner: OwnerFunction,
		Handler:    otherHandler,
		SourceFile: filepath.Join(moduleDir, "handlers.go"), SourceLine: 13,
	})

	app, err := New(Config{
		Roots:      []string{filepath.Join(dir, "app", "domains")},
		ModuleFile: filepath.Join(dir, "go.mod"),
		Registry:   reg,
	}, adapter)
	require.NoError(t, err)
	return app
}

func TestAppDiscover(t *testing.T) {
	app := discoveredApp(t, newFakeAdapter())

	require.NoError(t, app.Discover(context.Background()))
	assert.True(t, app.Registry().Frozen())

	routes := app.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, RoutePath("/alpha/{id:int}"), routes[0].Path)
	assert.Equal(t, "ALPHA", routes[0].Group)
	assert.Equal(t, "app/domains/alpha", routes[0].SourceModule)
	assert.Equal(t, RoutePath("/alpha/create"), routes[1].Path)

	modules := app.Modules()
	require.Len(t, modules, 1)
	assert.True(t, modules[0].Declares)

	// A second Discover is a no-op, not a re-walk.
	require.NoError(t, app.Discover(context.Background()))
	assert.Len(t, app.Routes(), 2)
}

func TestAppDiscoverFailsOnUnloadedModule(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app/domains/alpha/handlers.go": declaringSource,
	})

	// Empty registry: the declaring module's annotations never ran.
	app, err := New(Config{
		Roots:      []string{filepath.Join(dir, "app", "domains")},
		ModuleFile: filepath.Join(dir, "go.mod"),
		Registry:   NewRegistry(),
	}, newFakeAdapter())
	require.NoError(t, err)

	err = app.Discover(context.Background())
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Empty(t, app.Routes(), "discovery is all-or-nothing")
}

func TestAppStartServesAndStopsOnCancel(t *testing.T) {
	adapter := newFakeAdapter()
	app := discoveredApp(t, adapter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	select {
	case addr := <-adapter.started:
		assert.Equal(t, ":8080", addr, "default port applies")
	case <-time.After(5 * time.Second):
		t.Fatal("adapter never started")
	}
	require.Len(t, adapter.registered, 2, "routes bound before serving")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app never stopped")
	}
	assert.True(t, adapter.stopped)
}

func TestAppStartFailsWhenBindingFails(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.registerErr = assert.AnError
	app := discoveredApp(t, adapter)

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAppPluginAccessor(t *testing.T) {
	name := t.Name() + ".probe"
	trace := &[]string{}
	RegisterPlugin(name, func() Plugin { return &recordingPlugin{name: name, trace: trace} })

	app, err := New(Config{Plugins: []string{name}}, newFakeAdapter())
	require.NoError(t, err)

	p, ok := app.Plugin(name)
	require.True(t, ok)
	assert.Equal(t, name, p.Name())
	assert.Contains(t, *trace, name+".configure")

	_, ok = app.Plugin("absent")
	assert.False(t, ok)
}
