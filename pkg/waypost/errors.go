package waypost

import "fmt"

// RouteOrigin locates one side of a route conflict for diagnostics.
type RouteOrigin struct {
	Module  string
	Handler string
	File    string
	Line    int
}

func (o RouteOrigin) String() string {
	if o.File == "" {
		return fmt.Sprintf("%s (%s)", o.Handler, o.Module)
	}
	return fmt.Sprintf("%s (%s) at %s:%d", o.Handler, o.Module, o.File, o.Line)
}

// ConfigurationError reports annotation misuse at capture time: conflicting
// declarations on one handler, malformed path patterns, or capture after the
// registry froze. It aborts startup.
type ConfigurationError struct {
	Msg  string
	File string
	Line int
}

func (e *ConfigurationError) Error() string {
	if e.File == "" {
		return "configuration error: " + e.Msg
	}
	return fmt.Sprintf("configuration error at %s:%d: %s", e.File, e.Line, e.Msg)
}

// ImportError reports a discovered module that failed to load: either its
// source failed to parse, or it declares routes but was never linked into
// the binary. It aborts startup with the failing module path.
type ImportError struct {
	Module string
	File   string
	Err    error
}

func (e *ImportError) Error() string {
	where := e.Module
	if e.File != "" {
		where = e.File
	}
	return fmt.Sprintf("import error in %s: %v", where, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// DuplicateRouteError reports two resolved routes colliding on method+path
// after normalization. Both conflicting origins are named so the declaration
// can be fixed without reading framework internals.
type DuplicateRouteError struct {
	Method HTTPMethod
	Path   string
	First  RouteOrigin
	Second RouteOrigin
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("duplicate route %s %s declared by %s and %s",
		e.Method, e.Path, e.First, e.Second)
}

// PluginError reports a plugin lifecycle hook failure. Configure, before-
// discovery and after-discovery failures are fatal; shutdown failures are
// logged and the remaining hooks still run.
type PluginError struct {
	Plugin string
	Hook   string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %q: %s hook failed: %v", e.Plugin, e.Hook, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }
