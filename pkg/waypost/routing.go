package waypost

import "strings"

// RouteOption customizes a captured route descriptor.
type RouteOption func(*routeOptions)

type routeOptions struct {
	group string
	name  string
}

// WithGroup assigns a documentation group to the declaration.
func WithGroup(group string) RouteOption {
	return func(o *routeOptions) { o.group = group }
}

// WithName overrides the diagnostic name derived from the handler symbol.
func WithName(name string) RouteOption {
	return func(o *routeOptions) { o.name = name }
}

// Route captures a free-standing handler declaration and returns the handler
// unchanged, so direct calls behave exactly as without the annotation. No
// application or router needs to exist yet; the descriptor is resolved and
// bound during discovery.
//
// Misuse (bad method, malformed path, duplicate declaration on the same
// handler, capture after freeze) panics with a *ConfigurationError: route
// declarations run at package init time and have no error return path, and
// the process must not start with a broken declaration.
func (r *DiscoveryRegistry) Route(method HTTPMethod, path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}
	file, line := declarationSite()
	name := o.name
	if name == "" {
		name = handlerName(h)
	}
	d := &RouteDescriptor{
		Method:     method,
		Path:       RoutePath(path),
		Group:      o.group,
		Name:       name,
		Owner:      OwnerFunction,
		Handler:    h,
		SourceFile: file,
		SourceLine: line,
	}
	if err := r.addRoute(d); err != nil {
		panic(err)
	}
	return h
}

// Get captures a GET route. The remaining verb helpers are identical shims
// over Route so all declaration styles share one descriptor construction
// path.
func (r *DiscoveryRegistry) Get(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return r.Route(GET, path, h, opts...)
}

func (r *DiscoveryRegistry) Post(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return r.Route(POST, path, h, opts...)
}

func (r *DiscoveryRegistry) Put(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return r.Route(PUT, path, h, opts...)
}

func (r *DiscoveryRegistry) Patch(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return r.Route(PATCH, path, h, opts...)
}

func (r *DiscoveryRegistry) Delete(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return r.Route(DELETE, path, h, opts...)
}

func (r *DiscoveryRegistry) Options(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return r.Route(OPTIONS, path, h, opts...)
}

func (r *DiscoveryRegistry) Head(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return r.Route(HEAD, path, h, opts...)
}

// ControllerHandle is returned by Controller and carries the captured
// controller descriptor. Routes declared through the handle are method-owned
// and inherit the controller's base path and group at aggregation time.
type ControllerHandle struct {
	reg  *DiscoveryRegistry
	desc *ControllerDescriptor
}

// Controller captures a controller declaration: a base path shared by the
// routes declared through the returned handle, plus an optional group
// inherited by routes that declare none of their own.
func (r *DiscoveryRegistry) Controller(basePath string, opts ...RouteOption) *ControllerHandle {
	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}
	file, line := declarationSite()
	name := o.name
	if name == "" {
		name = controllerNameFromPath(basePath)
	}
	d := &ControllerDescriptor{
		BasePath:   RoutePath(basePath),
		Group:      o.group,
		Name:       name,
		SourceFile: file,
		SourceLine: line,
	}
	if err := r.addController(d); err != nil {
		panic(err)
	}
	return &ControllerHandle{reg: r, desc: d}
}

// Descriptor returns the captured controller descriptor.
func (c *ControllerHandle) Descriptor() *ControllerDescriptor {
	return c.desc
}

// Route captures a method-owned route on the controller and returns the
// handler unchanged.
func (c *ControllerHandle) Route(method HTTPMethod, path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}
	file, line := declarationSite()
	name := o.name
	if name == "" {
		name = handlerName(h)
	}
	d := &RouteDescriptor{
		Method:     method,
		Path:       RoutePath(path),
		Group:      o.group,
		Name:       name,
		Owner:      OwnerMethod,
		Handler:    h,
		Controller: c.desc,
		SourceFile: file,
		SourceLine: line,
	}
	if err := c.reg.addRoute(d); err != nil {
		panic(err)
	}
	return h
}

func (c *ControllerHandle) Get(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return c.Route(GET, path, h, opts...)
}

func (c *ControllerHandle) Post(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return c.Route(POST, path, h, opts...)
}

func (c *ControllerHandle) Put(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return c.Route(PUT, path, h, opts...)
}

func (c *ControllerHandle) Patch(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return c.Route(PATCH, path, h, opts...)
}

func (c *ControllerHandle) Delete(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return c.Route(DELETE, path, h, opts...)
}

func (c *ControllerHandle) Options(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return c.Route(OPTIONS, path, h, opts...)
}

func (c *ControllerHandle) Head(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return c.Route(HEAD, path, h, opts...)
}

// Package-level capture functions record into Default, mirroring the
// registry methods for the common single-registry case.

func Route(method HTTPMethod, path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return Default.Route(method, path, h, opts...)
}

func Get(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return Default.Route(GET, path, h, opts...)
}

func Post(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return Default.Route(POST, path, h, opts...)
}

func Put(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return Default.Route(PUT, path, h, opts...)
}

func Patch(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return Default.Route(PATCH, path, h, opts...)
}

func Delete(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return Default.Route(DELETE, path, h, opts...)
}

func Options(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return Default.Route(OPTIONS, path, h, opts...)
}

func Head(path string, h HandlerFunc, opts ...RouteOption) HandlerFunc {
	return Default.Route(HEAD, path, h, opts...)
}

func Controller(basePath string, opts ...RouteOption) *ControllerHandle {
	return Default.Controller(basePath, opts...)
}

// controllerNameFromPath derives a diagnostic controller name from its base
// path: "/users/admin" becomes "users.admin".
func controllerNameFromPath(basePath string) string {
	trimmed := strings.Trim(basePath, "/")
	if trimmed == "" {
		return "root"
	}
	return strings.ReplaceAll(trimmed, "/", ".")
}
