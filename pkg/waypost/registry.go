package waypost

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// DiscoveryRegistry collects route and controller descriptors as declaring
// modules initialize. It is append-only during the discovery phase and
// frozen before aggregation; any capture after freezing is a programming
// error and fails loudly.
//
// Discovery runs single-threaded before the server accepts traffic, so the
// registry takes no locks. Tests should instantiate isolated registries with
// NewRegistry instead of sharing Default.
type DiscoveryRegistry struct {
	frozen      bool
	routes      []*RouteDescriptor
	controllers []*ControllerDescriptor

	// captured guards against the same (method, path) being declared twice
	// on the same handler function, e.g. via stacked declarations.
	captured map[captureKey]captureSite

	seq int
}

type captureKey struct {
	handler  uintptr
	method   HTTPMethod
	identity string
}

type captureSite struct {
	file string
	line int
}

// Default is the process-wide registry the package-level capture functions
// record into.
var Default = NewRegistry()

// NewRegistry returns an empty, open registry.
func NewRegistry() *DiscoveryRegistry {
	return &DiscoveryRegistry{captured: make(map[captureKey]captureSite)}
}

// Freeze transitions the registry to read-only. Called once, after the
// walker pass completes.
func (r *DiscoveryRegistry) Freeze() {
	r.frozen = true
}

// Frozen reports whether the registry has been frozen.
func (r *DiscoveryRegistry) Frozen() bool {
	return r.frozen
}

// Reset restores an open, empty registry. Intended for tests and for
// tooling that runs discovery more than once in a process.
func (r *DiscoveryRegistry) Reset() {
	r.frozen = false
	r.routes = nil
	r.controllers = nil
	r.captured = make(map[captureKey]captureSite)
	r.seq = 0
}

// Routes returns a copy of the captured route descriptors in capture order.
func (r *DiscoveryRegistry) Routes() []*RouteDescriptor {
	return append([]*RouteDescriptor(nil), r.routes...)
}

// Controllers returns a copy of the captured controller descriptors in
// capture order.
func (r *DiscoveryRegistry) Controllers() []*ControllerDescriptor {
	return append([]*ControllerDescriptor(nil), r.controllers...)
}

// RouteCount returns the number of captured route descriptors.
func (r *DiscoveryRegistry) RouteCount() int {
	return len(r.routes)
}

// addRoute records a route descriptor, enforcing freeze and capture-time
// duplicate rules. Called by the capture API with the declaration site
// already resolved.
func (r *DiscoveryRegistry) addRoute(d *RouteDescriptor) error {
	if r.frozen {
		return &ConfigurationError{
			Msg:  fmt.Sprintf("route %s %s declared after discovery completed", d.Method, d.Path),
			File: d.SourceFile,
			Line: d.SourceLine,
		}
	}
	if !d.Method.Valid() {
		return &ConfigurationError{
			Msg:  fmt.Sprintf("unsupported HTTP method %q for path %s", string(d.Method), d.Path),
			File: d.SourceFile,
			Line: d.SourceLine,
		}
	}
	if err := d.Path.Validate(); err != nil {
		return &ConfigurationError{Msg: err.Error(), File: d.SourceFile, Line: d.SourceLine}
	}
	if d.Controller != nil {
		if err := d.Controller.BasePath.Validate(); err != nil {
			return &ConfigurationError{Msg: err.Error(), File: d.SourceFile, Line: d.SourceLine}
		}
	}

	identity, err := d.fullPattern().Identity()
	if err != nil {
		return &ConfigurationError{Msg: err.Error(), File: d.SourceFile, Line: d.SourceLine}
	}
	key := captureKey{handler: handlerPointer(d.Handler), method: d.Method, identity: identity}
	if prev, ok := r.captured[key]; ok {
		return &ConfigurationError{
			Msg: fmt.Sprintf("route %s %s already declared on this handler at %s:%d",
				d.Method, identity, prev.file, prev.line),
			File: d.SourceFile,
			Line: d.SourceLine,
		}
	}
	r.captured[key] = captureSite{file: d.SourceFile, line: d.SourceLine}

	d.Seq = r.seq
	r.seq++
	r.routes = append(r.routes, d)
	return nil
}

// addController records a controller descriptor.
func (r *DiscoveryRegistry) addController(d *ControllerDescriptor) error {
	if r.frozen {
		return &ConfigurationError{
			Msg:  fmt.Sprintf("controller %s declared after discovery completed", d.BasePath),
			File: d.SourceFile,
			Line: d.SourceLine,
		}
	}
	if err := d.BasePath.Validate(); err != nil {
		return &ConfigurationError{Msg: err.Error(), File: d.SourceFile, Line: d.SourceLine}
	}
	d.Seq = r.seq
	r.seq++
	r.controllers = append(r.controllers, d)
	return nil
}

// fullPattern is the joined pattern used for capture-time duplicate checks.
func (d *RouteDescriptor) fullPattern() RoutePath {
	if d.Controller != nil {
		return JoinPaths(d.Controller.BasePath, d.Path)
	}
	return d.Path
}

func handlerPointer(h HandlerFunc) uintptr {
	if h == nil {
		return 0
	}
	return reflect.ValueOf(h).Pointer()
}

// handlerName derives a diagnostic name for a handler from its function
// symbol, trimming the package path.
func handlerName(h HandlerFunc) string {
	ptr := handlerPointer(h)
	if ptr == 0 {
		return "<nil>"
	}
	fn := runtime.FuncForPC(ptr)
	if fn == nil {
		return "<unknown>"
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

const modulePathPrefix = "github.com/waypost-dev/waypost/pkg/waypost"

// declarationSite walks the call stack and returns the first frame outside
// this package, which is the file and line of the annotation itself.
func declarationSite() (string, int) {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, modulePathPrefix+".") {
			return frame.File, frame.Line
		}
		if !more {
			return "", 0
		}
	}
}
