// Package adapters provides RouterAdapter implementations binding the
// resolved route table onto Echo, Gin and Fiber.
package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/waypost-dev/waypost/pkg/waypost"
)

// EchoAdapter binds routes onto an Echo engine. It is the default adapter.
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter returns an adapter over a fresh Echo instance with panic
// recovery enabled.
func NewEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	return &EchoAdapter{engine: e}
}

// NewEchoAdapterFor wraps an existing Echo instance, for callers that need
// their own middleware stack.
func NewEchoAdapterFor(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// Engine returns the underlying Echo instance.
func (a *EchoAdapter) Engine() *echo.Echo {
	return a.engine
}

// Register binds one resolved route. The documentation group is surfaced
// through Echo's route naming, the only tagging mechanism it exposes.
func (a *EchoAdapter) Register(route waypost.ResolvedRoute) error {
	path, err := echoPath(route.Path)
	if err != nil {
		return err
	}
	r := a.engine.Add(string(route.Method), path, echo.WrapHandler(http.HandlerFunc(route.Handler)))
	r.Name = routeName(route)
	return nil
}

func (a *EchoAdapter) Start(addr string) error {
	return a.engine.Start(addr)
}

func (a *EchoAdapter) Stop(ctx context.Context) error {
	return a.engine.Shutdown(ctx)
}

func (a *EchoAdapter) Name() string {
	return "echo"
}

// echoPath converts a waypost pattern to Echo syntax: {id:int} becomes :id,
// {*} becomes *.
func echoPath(p waypost.RoutePath) (string, error) {
	parts, err := p.Parts()
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "/", nil
	}
	var b strings.Builder
	for _, part := range parts {
		b.WriteByte('/')
		switch part.Kind {
		case waypost.ParamPart:
			b.WriteByte(':')
			b.WriteString(part.Value)
		case waypost.WildcardPart:
			b.WriteByte('*')
		default:
			b.WriteString(part.Value)
		}
	}
	return b.String(), nil
}

// routeName is the diagnostic name adapters attach where the router supports
// naming: the handler name, qualified by the documentation group when one
// is set.
func routeName(route waypost.ResolvedRoute) string {
	if route.Group == "" {
		return route.HandlerName
	}
	return route.Group + "." + route.HandlerName
}
