package waypost

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter records registrations and serves nothing.
type fakeAdapter struct {
	registered  []ResolvedRoute
	registerErr error

	started chan string
	stopErr error
	stopped bool
	release chan struct{}
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		started: make(chan string, 1),
		release: make(chan struct{}),
	}
}

func (f *fakeAdapter) Register(route ResolvedRoute) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, route)
	return nil
}

func (f *fakeAdapter) Start(addr string) error {
	f.started <- addr
	<-f.release
	return nil
}

func (f *fakeAdapter) Stop(ctx context.Context) error {
	f.stopped = true
	close(f.release)
	return f.stopErr
}

func (f *fakeAdapter) Name() string { return "fake" }

func TestRegistrarBindsInOrder(t *testing.T) {
	adapter := newFakeAdapter()
	routes := []ResolvedRoute{
		{Method: GET, Path: "/a", HandlerName: "a"},
		{Method: POST, Path: "/b", HandlerName: "b"},
	}

	err := NewRegistrar(adapter, nil).Bind(routes)
	require.NoError(t, err)
	require.Len(t, adapter.registered, 2)
	assert.Equal(t, RoutePath("/a"), adapter.registered[0].Path)
	assert.Equal(t, RoutePath("/b"), adapter.registered[1].Path)
}

func TestRegistrarWrapsRegisterFailure(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.registerErr = errors.New("conflicting wildcard")

	err := NewRegistrar(adapter, nil).Bind([]ResolvedRoute{
		{Method: GET, Path: "/files/{*}", HandlerName: "files"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /files/{*}")
	assert.Contains(t, err.Error(), "fake")
	assert.ErrorContains(t, err, "conflicting wildcard")
}

func TestRegistrarLogsEveryRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	adapter := newFakeAdapter()
	err := NewRegistrar(adapter, logger).Bind([]ResolvedRoute{
		{Method: GET, Path: "/users/{id:int}", Group: "USERS", HandlerName: "showUser", SourceModule: "app/domains/users"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "route registered")
	assert.Contains(t, out, "/users/{id:int}")
	assert.Contains(t, out, "USERS")
	assert.Contains(t, out, "showUser")
	assert.Contains(t, out, "app/domains/users")
	assert.Contains(t, out, "registration complete")
}
