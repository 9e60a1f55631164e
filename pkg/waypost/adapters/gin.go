package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/waypost-dev/waypost/pkg/waypost"
)

// GinAdapter binds routes onto a Gin engine. Gin has no route naming or
// tagging mechanism, so the adapter keeps the group in its own table,
// exposed through Registered for documentation tooling.
type GinAdapter struct {
	engine     *gin.Engine
	server     *http.Server
	registered []waypost.ResolvedRoute
}

// NewGinAdapter returns an adapter over a fresh Gin engine with panic
// recovery enabled.
func NewGinAdapter() *GinAdapter {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	return &GinAdapter{engine: engine}
}

// NewGinAdapterFor wraps an existing Gin engine.
func NewGinAdapterFor(engine *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: engine}
}

// Engine returns the underlying Gin engine.
func (a *GinAdapter) Engine() *gin.Engine {
	return a.engine
}

// Registered returns the routes bound so far, groups included.
func (a *GinAdapter) Registered() []waypost.ResolvedRoute {
	return append([]waypost.ResolvedRoute(nil), a.registered...)
}

func (a *GinAdapter) Register(route waypost.ResolvedRoute) error {
	path, err := ginPath(route.Path)
	if err != nil {
		return err
	}
	handler := route.Handler
	a.engine.Handle(string(route.Method), path, func(c *gin.Context) {
		handler(c.Writer, c.Request)
	})
	a.registered = append(a.registered, route)
	return nil
}

func (a *GinAdapter) Start(addr string) error {
	a.server = &http.Server{Addr: addr, Handler: a.engine}
	return a.server.ListenAndServe()
}

func (a *GinAdapter) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

func (a *GinAdapter) Name() string {
	return "gin"
}

// ginPath converts a waypost pattern to Gin syntax: {id:int} becomes :id,
// {*} becomes *rest (Gin wildcards must be named).
func ginPath(p waypost.RoutePath) (string, error) {
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
			b.WriteString("*rest")
		default:
			b.WriteString(part.Value)
		}
	}
	return b.String(), nil
}
