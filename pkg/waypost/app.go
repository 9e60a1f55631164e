package waypost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// Config holds the runtime configuration for an App.
type Config struct {
	// Host and Port form the listen address.
	Host string
	Port int

	// Roots are the discovery root directories, walked independently in
	// the given order.
	Roots []string

	// Plugins is the enabled-plugin list, in enable order. A plugin absent
	// from the list never has any of its hooks invoked.
	Plugins []string

	// PluginOptions carries per-plugin configuration, keyed by plugin name,
	// passed to Configure hooks.
	PluginOptions map[string]map[string]any

	// ShutdownTimeout bounds graceful shutdown (default 30s).
	ShutdownTimeout time.Duration

	// Registry overrides the process-wide Default registry, mainly for
	// tests that need isolation.
	Registry *DiscoveryRegistry

	// ModuleFile overrides go.mod auto-detection for the walker.
	ModuleFile string

	// Logger receives discovery and registration events. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

func (c *Config) withDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.Registry == nil {
		c.Registry = Default
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// App sequences the startup pipeline: plugin configure hooks, the walker
// pass over the discovery roots, registry freeze, aggregation, the
// registrar bind, and serving with graceful shutdown. Every fatal condition
// in that pipeline prevents the server from accepting its first connection.
type App struct {
	cfg      Config
	adapter  RouterAdapter
	registry *DiscoveryRegistry
	logger   *slog.Logger
	plugins  *PluginSet

	modules    []Module
	routes     []ResolvedRoute
	discovered bool
}

// New constructs an App on the given adapter and runs plugin Configure
// hooks, in enable order.
func New(cfg Config, adapter RouterAdapter) (*App, error) {
	if adapter == nil {
		return nil, fmt.Errorf("waypost: nil router adapter")
	}
	cfg.withDefaults()

	plugins, err := NewPluginSet(cfg.Plugins, cfg.Logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		adapter:  adapter,
		registry: cfg.Registry,
		logger:   cfg.Logger,
		plugins:  plugins,
	}
	if err := plugins.Configure(app, cfg.PluginOptions); err != nil {
		return nil, err
	}
	return app, nil
}

// Registry returns the discovery registry the app aggregates from. Plugins
// use it to declare routes during BeforeDiscovery.
func (a *App) Registry() *DiscoveryRegistry { return a.registry }

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Adapter returns the router adapter.
func (a *App) Adapter() RouterAdapter { return a.adapter }

// Plugin returns the enabled plugin with the given name, for cross-plugin
// collaboration.
func (a *App) Plugin(name string) (Plugin, bool) {
	return a.plugins.Lookup(name)
}

// Routes returns the resolved route table. Empty until Discover has run.
func (a *App) Routes() []ResolvedRoute {
	return append([]ResolvedRoute(nil), a.routes...)
}

// Modules returns the modules the walker visited. Empty until Discover has
// run.
func (a *App) Modules() []Module {
	return append([]Module(nil), a.modules...)
}

// Discover runs the discovery pipeline once: before-discovery hooks, the
// walker pass, registry freeze, the loaded-check, aggregation, and
// after-discovery hooks. Discovery is all-or-nothing; no partial route
// table survives a failure.
func (a *App) Discover(ctx context.Context) error {
	if a.discovered {
		return nil
	}

	if err := a.plugins.BeforeDiscovery(ctx); err != nil {
		return err
	}

	opts := []WalkerOption{WithWalkerLogger(a.logger)}
	if a.cfg.ModuleFile != "" {
		opts = append(opts, WithModuleFile(a.cfg.ModuleFile))
	}
	walker := NewWalker(a.cfg.Roots, opts...)
	modules, err := walker.Walk()
	if err != nil {
		return err
	}

	a.registry.Freeze()

	if err := walker.Verify(a.registry, modules); err != nil {
		return err
	}

	routes, err := NewAggregator(a.logger).Resolve(a.registry, modules)
	if err != nil {
		return err
	}

	if err := a.plugins.AfterDiscovery(ctx, routes); err != nil {
		return err
	}

	a.modules = modules
	a.routes = routes
	a.discovered = true
	return nil
}

// Start runs discovery if needed, binds the route table, and serves until
// ctx is cancelled or the server fails.
func (a *App) Start(ctx context.Context) error {
	if err := a.Discover(ctx); err != nil {
		return err
	}

	registrar := NewRegistrar(a.adapter, a.logger)
	if err := registrar.Bind(a.routes); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
	a.logger.Info("server starting",
		"adapter", a.adapter.Name(),
		"addr", addr,
		"routes", len(a.routes),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.adapter.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	stopErr := a.Stop(shutdownCtx)

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return stopErr
}

// Run serves until an interrupt or termination signal arrives, then shuts
// down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Start(ctx)
}

// Stop shuts the server down and then runs plugin Shutdown hooks in reverse
// enable order. A failing shutdown hook is logged and never blocks the
// remaining hooks.
func (a *App) Stop(ctx context.Context) error {
	a.logger.Info("server stopping")
	err := a.adapter.Stop(ctx)
	a.plugins.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
