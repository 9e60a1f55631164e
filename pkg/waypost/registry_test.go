package waypost

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(w http.ResponseWriter, r *http.Request) {}

func otherHandler(w http.ResponseWriter, r *http.Request) {}

func TestRegistryCaptureOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Get("/a", noopHandler)
	reg.Post("/b", otherHandler)
	reg.Controller("/c")

	routes := reg.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, 0, routes[0].Seq)
	assert.Equal(t, 1, routes[1].Seq)

	controllers := reg.Controllers()
	require.Len(t, controllers, 1)
	assert.Equal(t, 2, controllers[0].Seq, "controllers share the capture sequence with routes")
	assert.Equal(t, 2, reg.RouteCount())
}

func TestRegistryFreezeRejectsCapture(t *testing.T) {
	reg := NewRegistry()
	reg.Get("/before", noopHandler)
	reg.Freeze()
	require.True(t, reg.Frozen())

	func() {
		defer func() {
			err, ok := recover().(*ConfigurationError)
			require.True(t, ok, "expected *ConfigurationError panic")
			assert.Contains(t, err.Msg, "declared after discovery completed")
		}()
		reg.Get("/after", noopHandler)
	}()

	assert.Panics(t, func() { reg.Controller("/late") })
}

func TestRegistryDuplicateCaptureOnHandler(t *testing.T) {
	reg := NewRegistry()
	reg.Get("/users/{id:int}", noopHandler)

	// Same handler, same verb, same path shape: rejected at capture even
	// though the parameter differs.
	defer func() {
		err, ok := recover().(*ConfigurationError)
		require.True(t, ok, "expected *ConfigurationError panic")
		assert.Contains(t, err.Msg, "already declared")
	}()
	reg.Get("/users/{name}", noopHandler)
}

func TestRegistryDuplicateAllowsDistinctHandlers(t *testing.T) {
	reg := NewRegistry()
	reg.Get("/users/{id}", noopHandler)

	// A different handler on the same shape is not a capture-time error;
	// the aggregator decides the conflict with both origins in hand.
	assert.NotPanics(t, func() { reg.Get("/users/{id}", otherHandler) })
	assert.Equal(t, 2, reg.RouteCount())
}

func TestRegistryRejectsInvalidMethod(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.Route("FETCH", "/x", noopHandler) })
}

func TestRegistryRejectsInvalidPath(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.Get("/users/{id:integer}", noopHandler) })
	assert.Panics(t, func() { reg.Get("/users/{id", noopHandler) })
	assert.Panics(t, func() { reg.Controller("/{broken") })
}

func TestRegistryReset(t *testing.T) {
	reg := NewRegistry()
	reg.Get("/a", noopHandler)
	reg.Controller("/c")
	reg.Freeze()

	reg.Reset()
	assert.False(t, reg.Frozen())
	assert.Empty(t, reg.Routes())
	assert.Empty(t, reg.Controllers())

	// A previously captured declaration can be made again after a reset.
	assert.NotPanics(t, func() { reg.Get("/a", noopHandler) })
	assert.Equal(t, 0, reg.Routes()[0].Seq)
}

func TestHandlerName(t *testing.T) {
	name := handlerName(noopHandler)
	assert.Contains(t, name, "noopHandler")
	assert.NotContains(t, name, "/", "package path is trimmed")

	assert.Equal(t, "<nil>", handlerName(nil))
}
