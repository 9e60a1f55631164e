package waypost

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Plugin is the minimal plugin contract. Lifecycle participation is opt-in
// through the hook interfaces below; a plugin implements only the hooks it
// needs.
type Plugin interface {
	Name() string
}

// ConfigureHook runs once at application construction, before discovery.
// Options come from the plugin_options section of the configuration.
type ConfigureHook interface {
	Configure(app *App, options map[string]any) error
}

// BeforeDiscoveryHook runs before the walker pass. Plugins may still declare
// routes here; the registry has not frozen yet.
type BeforeDiscoveryHook interface {
	BeforeDiscovery(ctx context.Context) error
}

// AfterDiscoveryHook runs with the final resolved route table, after
// aggregation and before the registrar binds it.
type AfterDiscoveryHook interface {
	AfterDiscovery(ctx context.Context, routes []ResolvedRoute) error
}

// ShutdownHook runs during shutdown, in reverse enable order. A shutdown
// failure is logged and the remaining hooks still run.
type ShutdownHook interface {
	Shutdown(ctx context.Context) error
}

// PluginFactory constructs a plugin instance. Factories are registered under
// a stable name at build time and looked up by name at startup; there is no
// code loading by path string.
type PluginFactory func() Plugin

var (
	pluginMu        sync.Mutex
	pluginFactories = make(map[string]PluginFactory)
)

// RegisterPlugin registers a factory under a stable name. Typically called
// from a plugin package's init. Registering the same name twice panics: two
// plugins silently shadowing each other is a build mistake.
func RegisterPlugin(name string, factory PluginFactory) {
	pluginMu.Lock()
	defer pluginMu.Unlock()
	if _, exists := pluginFactories[name]; exists {
		panic(fmt.Sprintf("waypost: plugin %q registered twice", name))
	}
	pluginFactories[name] = factory
}

// LookupPlugin returns the factory registered under name.
func LookupPlugin(name string) (PluginFactory, bool) {
	pluginMu.Lock()
	defer pluginMu.Unlock()
	f, ok := pluginFactories[name]
	return f, ok
}

// PluginNames returns the registered plugin names, sorted.
func PluginNames() []string {
	pluginMu.Lock()
	defer pluginMu.Unlock()
	names := make([]string, 0, len(pluginFactories))
	for name := range pluginFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PluginSet is the ordered set of enabled plugins. Hooks run sequentially:
// the host waits for each hook to return before invoking the next, in
// enable-list order (reverse order for shutdown).
type PluginSet struct {
	plugins []Plugin
	logger  *slog.Logger
}

// NewPluginSet instantiates the named plugins in order. An entry with no
// registered factory is a startup error: the enabled list is part of the
// configuration contract.
func NewPluginSet(names []string, logger *slog.Logger) (*PluginSet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	set := &PluginSet{logger: logger}
	for _, name := range names {
		factory, ok := LookupPlugin(name)
		if !ok {
			return nil, &PluginError{
				Plugin: name,
				Hook:   "lookup",
				Err:    fmt.Errorf("no plugin registered under %q (known: %v)", name, PluginNames()),
			}
		}
		p := factory()
		if p.Name() != name {
			return nil, &PluginError{
				Plugin: name,
				Hook:   "lookup",
				Err:    fmt.Errorf("factory produced plugin named %q", p.Name()),
			}
		}
		set.plugins = append(set.plugins, p)
	}
	return set, nil
}

// Plugins returns the enabled plugins in order.
func (s *PluginSet) Plugins() []Plugin {
	return append([]Plugin(nil), s.plugins...)
}

// Lookup returns the enabled plugin with the given name.
func (s *PluginSet) Lookup(name string) (Plugin, bool) {
	for _, p := range s.plugins {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Configure invokes Configure hooks in order. Any failure is fatal.
func (s *PluginSet) Configure(app *App, options map[string]map[string]any) error {
	for _, p := range s.plugins {
		hook, ok := p.(ConfigureHook)
		if !ok {
			continue
		}
		if err := hook.Configure(app, options[p.Name()]); err != nil {
			return &PluginError{Plugin: p.Name(), Hook: "configure", Err: err}
		}
		s.logger.Debug("plugin configured", "plugin", p.Name())
	}
	return nil
}

// BeforeDiscovery invokes BeforeDiscovery hooks in order. Any failure is
// fatal.
func (s *PluginSet) BeforeDiscovery(ctx context.Context) error {
	for _, p := range s.plugins {
		hook, ok := p.(BeforeDiscoveryHook)
		if !ok {
			continue
		}
		if err := hook.BeforeDiscovery(ctx); err != nil {
			return &PluginError{Plugin: p.Name(), Hook: "before-discovery", Err: err}
		}
	}
	return nil
}

// AfterDiscovery invokes AfterDiscovery hooks in order with the resolved
// route table. Any failure is fatal.
func (s *PluginSet) AfterDiscovery(ctx context.Context, routes []ResolvedRoute) error {
	for _, p := range s.plugins {
		hook, ok := p.(AfterDiscoveryHook)
		if !ok {
			continue
		}
		if err := hook.AfterDiscovery(ctx, routes); err != nil {
			return &PluginError{Plugin: p.Name(), Hook: "after-discovery", Err: err}
		}
	}
	return nil
}

// Shutdown invokes Shutdown hooks in reverse order. Failures are logged and
// never stop the remaining hooks; shutdown must not abort partway.
func (s *PluginSet) Shutdown(ctx context.Context) {
	for i := len(s.plugins) - 1; i >= 0; i-- {
		p := s.plugins[i]
		hook, ok := p.(ShutdownHook)
		if !ok {
			continue
		}
		if err := hook.Shutdown(ctx); err != nil {
			s.logger.Error("plugin shutdown failed",
				"plugin", p.Name(),
				"error", err.Error(),
			)
		}
	}
}
