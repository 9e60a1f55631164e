package waypost

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPMethod is the closed set of HTTP verbs a route may be declared with.
type HTTPMethod string

const (
	GET     HTTPMethod = "GET"
	POST    HTTPMethod = "POST"
	PUT     HTTPMethod = "PUT"
	PATCH   HTTPMethod = "PATCH"
	DELETE  HTTPMethod = "DELETE"
	OPTIONS HTTPMethod = "OPTIONS"
	HEAD    HTTPMethod = "HEAD"
)

var httpMethods = map[HTTPMethod]bool{
	GET: true, POST: true, PUT: true, PATCH: true,
	DELETE: true, OPTIONS: true, HEAD: true,
}

// Valid reports whether the method is one of the supported verbs.
func (m HTTPMethod) Valid() bool {
	return httpMethods[m]
}

func (m HTTPMethod) String() string {
	return string(m)
}

// ParseHTTPMethod converts a string (case-insensitive) to an HTTPMethod.
func ParseHTTPMethod(s string) (HTTPMethod, error) {
	m := HTTPMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported HTTP method %q", s)
	}
	return m, nil
}

// OwnerKind identifies which declaration style produced a route descriptor.
type OwnerKind int

const (
	// OwnerFunction marks a free-standing handler declaration.
	OwnerFunction OwnerKind = iota

	// OwnerMethod marks a handler declared through a controller handle.
	OwnerMethod
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerFunction:
		return "function"
	case OwnerMethod:
		return "method"
	default:
		return "unknown"
	}
}

// HandlerFunc is the opaque callable a route descriptor points at. Declaring
// a route never wraps the handler: calling it directly behaves exactly like
// a plain http.HandlerFunc.
type HandlerFunc func(http.ResponseWriter, *http.Request)

// RouteDescriptor is the immutable record captured when a route annotation
// evaluates. It is owned by the declaring module until the aggregator reads
// the frozen registry.
type RouteDescriptor struct {
	Method HTTPMethod
	Path   RoutePath

	// Group is the optional documentation category. For method-owned
	// descriptors an empty group inherits the controller's group during
	// aggregation.
	Group string

	// Name identifies the handler in diagnostics. Defaults to the handler's
	// function name.
	Name string

	Owner   OwnerKind
	Handler HandlerFunc

	// Controller is set only for OwnerMethod descriptors.
	Controller *ControllerDescriptor

	// SourceFile and SourceLine locate the declaration site.
	SourceFile string
	SourceLine int

	// Seq is the capture order within the registry, used for deterministic
	// output ordering.
	Seq int
}

// ControllerDescriptor is captured when a controller annotation evaluates.
// It holds no routes itself; method-owned route descriptors point back at it.
type ControllerDescriptor struct {
	BasePath RoutePath
	Group    string
	Name     string

	SourceFile string
	SourceLine int
	Seq        int
}

// ResolvedRoute is a descriptor combined with its owning controller's base
// path, ready for binding onto a router adapter.
type ResolvedRoute struct {
	Method HTTPMethod

	// Path is the normalized full path pattern, including the controller
	// base path for method-owned routes.
	Path RoutePath

	Group       string
	Handler     HandlerFunc
	HandlerName string

	// SourceModule is the walker-attributed module the route was declared
	// in, for diagnostics.
	SourceModule string
	SourceFile   string
	SourceLine   int
}

// FullPath returns the normalized path as a plain string.
func (r ResolvedRoute) FullPath() string {
	return string(r.Path)
}
