package plugins

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/waypost-dev/waypost/pkg/waypost"
)

func init() {
	waypost.RegisterPlugin("realtime", func() waypost.Plugin { return NewRealtimePlugin() })
}

const defaultSocketPath = "/ws"

// RealtimePlugin serves a websocket endpoint and broadcasts events from the
// events plugin's bus to every connected client. The socket route is
// declared through the ordinary capture API during BeforeDiscovery, so it
// shows up in the route table and duplicate detection like any handler.
type RealtimePlugin struct {
	app    *waypost.App
	logger *slog.Logger
	path   string

	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	cancel func()
	done   chan struct{}
}

// NewRealtimePlugin returns a realtime plugin serving on /ws.
func NewRealtimePlugin() *RealtimePlugin {
	return &RealtimePlugin{
		logger: slog.Default(),
		path:   defaultSocketPath,
		conns:  make(map[string]*websocket.Conn),
	}
}

func (p *RealtimePlugin) Name() string { return "realtime" }

func (p *RealtimePlugin) Configure(app *waypost.App, options map[string]any) error {
	p.app = app
	p.logger = app.Logger()
	if path, ok := options["path"].(string); ok && path != "" {
		p.path = path
	}
	return nil
}

func (p *RealtimePlugin) BeforeDiscovery(ctx context.Context) error {
	p.app.Registry().Get(p.path, p.serveSocket,
		waypost.WithGroup("REALTIME"),
		waypost.WithName("realtime.socket"),
	)
	return nil
}

func (p *RealtimePlugin) AfterDiscovery(ctx context.Context, routes []waypost.ResolvedRoute) error {
	plugin, ok := p.app.Plugin("events")
	if !ok {
		p.logger.Debug("realtime: events plugin not enabled, nothing to broadcast")
		return nil
	}
	events, isEvents := plugin.(*EventsPlugin)
	if !isEvents {
		return nil
	}
	ch, cancel := events.Bus().Subscribe()
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.broadcast(ch)
	return nil
}

func (p *RealtimePlugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, conn := range p.conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(p.conns, id)
	}
	return nil
}

// ConnectionCount returns the number of connected clients.
func (p *RealtimePlugin) ConnectionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

func (p *RealtimePlugin) serveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		p.logger.Warn("realtime: websocket accept failed", "error", err.Error())
		return
	}
	id := uuid.NewString()

	p.mu.Lock()
	p.conns[id] = conn
	p.mu.Unlock()
	p.logger.Debug("realtime: client connected", "conn", id)

	// Block reading until the client goes away; broadcasting happens from
	// the bus goroutine.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	p.mu.Lock()
	delete(p.conns, id)
	p.mu.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "")
	p.logger.Debug("realtime: client disconnected", "conn", id)
}

func (p *RealtimePlugin) broadcast(ch <-chan Event) {
	defer close(p.done)
	for ev := range ch {
		p.mu.Lock()
		conns := make(map[string]*websocket.Conn, len(p.conns))
		for id, conn := range p.conns {
			conns[id] = conn
		}
		p.mu.Unlock()

		for id, conn := range conns {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				p.logger.Debug("realtime: dropping client", "conn", id, "error", err.Error())
				p.mu.Lock()
				delete(p.conns, id)
				p.mu.Unlock()
				_ = conn.Close(websocket.StatusAbnormalClosure, "write failed")
			}
			cancel()
		}
	}
}
