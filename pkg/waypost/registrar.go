package waypost

import (
	"context"
	"fmt"
	"log/slog"
)

// RouterAdapter is the contract the registrar binds the route table onto.
// Adapters for Echo, Gin and Fiber live in the adapters package; anything
// that can register a method+path+handler triple can serve.
type RouterAdapter interface {
	// Register binds one resolved route. The adapter converts the path
	// pattern to its native parameter syntax and maps the group onto
	// whatever tagging mechanism it has.
	Register(route ResolvedRoute) error

	// Start begins accepting connections and blocks until the server stops.
	Start(addr string) error

	// Stop gracefully shuts the server down.
	Stop(ctx context.Context) error

	// Name identifies the adapter in diagnostics.
	Name() string
}

// Registrar binds a resolved route table onto a router adapter and emits
// one structured event per route plus a summary, before the server accepts
// its first request.
type Registrar struct {
	adapter RouterAdapter
	logger  *slog.Logger
}

// NewRegistrar returns a registrar for the given adapter.
func NewRegistrar(adapter RouterAdapter, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{adapter: adapter, logger: logger}
}

// Bind registers every route in order. Binding from a cold process is
// idempotent: the same source tree always produces the same table in the
// same order.
func (r *Registrar) Bind(routes []ResolvedRoute) error {
	for _, route := range routes {
		if err := r.adapter.Register(route); err != nil {
			return fmt.Errorf("register %s %s on %s: %w",
				route.Method, route.Path, r.adapter.Name(), err)
		}
		r.logger.Info("route registered",
			"method", string(route.Method),
			"path", string(route.Path),
			"group", route.Group,
			"handler", route.HandlerName,
			"module", route.SourceModule,
		)
	}
	r.logger.Info("registration complete",
		"adapter", r.adapter.Name(),
		"routes", len(routes),
	)
	return nil
}
