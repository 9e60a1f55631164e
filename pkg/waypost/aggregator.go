package waypost

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
)

// Aggregator turns a frozen registry into the ordered route table. It is the
// only component that understands both declaration styles: function-owned
// descriptors resolve as-is, method-owned descriptors are composed with
// their controller's base path and inherit its group.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator returns an aggregator logging through the given logger, or
// slog.Default when nil.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// identityKey is the duplicate-detection key: verb plus the path pattern
// with parameter names erased.
type identityKey struct {
	method   HTTPMethod
	identity string
}

// Resolve reads the frozen registry and produces the route table in module
// walk order (capture order within a module). Descriptors declared outside
// every walked module, such as plugin routes, sort after all modules.
//
// Two routes colliding on (method, normalized path) is a hard failure: a
// silently shadowed route is a correctness hazard, so there is never a
// "winner".
func (a *Aggregator) Resolve(reg *DiscoveryRegistry, modules []Module) ([]ResolvedRoute, error) {
	if !reg.Frozen() {
		return nil, fmt.Errorf("aggregator requires a frozen registry")
	}

	moduleIndex := make(map[string]int, len(modules))
	for i, mod := range modules {
		moduleIndex[mod.Dir] = i
	}

	type orderedRoute struct {
		route  ResolvedRoute
		module int
		seq    int
		origin RouteOrigin
	}

	descriptors := reg.Routes()
	ordered := make([]orderedRoute, 0, len(descriptors))
	byKey := make(map[identityKey]RouteOrigin, len(descriptors))

	for _, d := range descriptors {
		pattern := d.Path
		group := d.Group
		if d.Owner == OwnerMethod {
			pattern = JoinPaths(d.Controller.BasePath, d.Path)
			if group == "" {
				group = d.Controller.Group
			}
		}

		normalized, err := pattern.Normalized()
		if err != nil {
			// Patterns are validated at capture, so this indicates registry
			// tampering rather than a declaration mistake.
			return nil, &ConfigurationError{Msg: err.Error(), File: d.SourceFile, Line: d.SourceLine}
		}
		identity, err := pattern.Identity()
		if err != nil {
			return nil, &ConfigurationError{Msg: err.Error(), File: d.SourceFile, Line: d.SourceLine}
		}

		sourceModule := "external"
		idx := len(modules)
		if mod, ok := AttributeModule(modules, d.SourceFile); ok {
			sourceModule = mod.Rel
			idx = moduleIndex[mod.Dir]
		} else if d.SourceFile != "" {
			// Plugin and test declarations attribute to their package
			// directory name for diagnostics.
			sourceModule = filepath.Base(filepath.Dir(d.SourceFile))
		}

		origin := RouteOrigin{
			Module:  sourceModule,
			Handler: d.Name,
			File:    d.SourceFile,
			Line:    d.SourceLine,
		}

		key := identityKey{method: d.Method, identity: identity}
		if first, dup := byKey[key]; dup {
			return nil, &DuplicateRouteError{
				Method: d.Method,
				Path:   string(normalized),
				First:  first,
				Second: origin,
			}
		}
		byKey[key] = origin

		ordered = append(ordered, orderedRoute{
			route: ResolvedRoute{
				Method:       d.Method,
				Path:         normalized,
				Group:        group,
				Handler:      d.Handler,
				HandlerName:  d.Name,
				SourceModule: sourceModule,
				SourceFile:   d.SourceFile,
				SourceLine:   d.SourceLine,
			},
			module: idx,
			seq:    d.Seq,
			origin: origin,
		})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].module != ordered[j].module {
			return ordered[i].module < ordered[j].module
		}
		return ordered[i].seq < ordered[j].seq
	})

	routes := make([]ResolvedRoute, len(ordered))
	for i, o := range ordered {
		routes[i] = o.route
	}

	a.logger.Debug("route table resolved",
		"routes", len(routes),
		"controllers", len(reg.Controllers()),
		"modules", len(modules),
	)
	return routes, nil
}
