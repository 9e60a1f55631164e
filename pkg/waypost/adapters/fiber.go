package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/waypost-dev/waypost/pkg/waypost"
)

// FiberAdapter binds routes onto a Fiber app. The documentation group is
// surfaced through Fiber's route naming.
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter returns an adapter over a fresh Fiber app with panic
// recovery enabled.
func NewFiberAdapter() *FiberAdapter {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	return &FiberAdapter{app: app}
}

// NewFiberAdapterFor wraps an existing Fiber app.
func NewFiberAdapterFor(app *fiber.App) *FiberAdapter {
	return &FiberAdapter{app: app}
}

// App returns the underlying Fiber app.
func (a *FiberAdapter) App() *fiber.App {
	return a.app
}

func (a *FiberAdapter) Register(route waypost.ResolvedRoute) error {
	path, err := fiberPath(route.Path)
	if err != nil {
		return err
	}
	a.app.Add(string(route.Method), path, adaptor.HTTPHandlerFunc(http.HandlerFunc(route.Handler))).
		Name(routeName(route))
	return nil
}

func (a *FiberAdapter) Start(addr string) error {
	return a.app.Listen(addr)
}

func (a *FiberAdapter) Stop(ctx context.Context) error {
	return a.app.ShutdownWithContext(ctx)
}

func (a *FiberAdapter) Name() string {
	return "fiber"
}

// fiberPath converts a waypost pattern to Fiber syntax: {id:int} becomes
// :id, {*} becomes *.
func fiberPath(p waypost.RoutePath) (string, error) {
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
