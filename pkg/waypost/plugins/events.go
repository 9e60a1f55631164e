// Package plugins contains the builtin waypost plugins. Importing the
// package registers them; enabling them is a configuration decision.
package plugins

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/waypost-dev/waypost/pkg/waypost"
)

func init() {
	waypost.RegisterPlugin("events", func() waypost.Plugin { return NewEventsPlugin() })
}

// Event is one message on the bus.
type Event struct {
	Topic   string    `json:"topic"`
	Payload any       `json:"payload,omitempty"`
	Time    time.Time `json:"time"`
}

type subscriber struct {
	topics map[string]bool // nil subscribes to every topic
	ch     chan Event
}

// Bus is a small in-process publish/subscribe bus. Publishing never blocks:
// a subscriber that falls behind loses events rather than stalling the
// publisher.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	next   int
	closed bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe returns a channel of events for the given topics (all topics
// when none are given) and a cancel function that closes it.
func (b *Bus) Subscribe(topics ...string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, 16)}
	if len(topics) > 0 {
		sub.topics = make(map[string]bool, len(topics))
		for _, t := range topics {
			sub.topics[t] = true
		}
	}
	id := b.next
	b.next++
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.subs[id] = sub

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Publish delivers an event to every matching subscriber.
func (b *Bus) Publish(topic string, payload any) {
	ev := Event{Topic: topic, Payload: payload, Time: time.Now()}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.topics != nil && !sub.topics[topic] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Topics published by the events plugin.
const (
	TopicDiscoveryStarted   = "discovery.started"
	TopicDiscoveryCompleted = "discovery.completed"
	TopicShutdown           = "app.shutdown"
)

// DiscoverySummary is the payload published on discovery completion.
type DiscoverySummary struct {
	Routes int      `json:"routes"`
	Table  []string `json:"table"`
}

// EventsPlugin exposes the application lifecycle on an in-process bus.
// Other plugins and application code subscribe through Bus.
type EventsPlugin struct {
	bus    *Bus
	logger *slog.Logger
}

// NewEventsPlugin returns an events plugin with a fresh bus.
func NewEventsPlugin() *EventsPlugin {
	return &EventsPlugin{bus: NewBus(), logger: slog.Default()}
}

func (p *EventsPlugin) Name() string { return "events" }

// Bus returns the plugin's event bus.
func (p *EventsPlugin) Bus() *Bus { return p.bus }

func (p *EventsPlugin) Configure(app *waypost.App, options map[string]any) error {
	p.logger = app.Logger()
	return nil
}

func (p *EventsPlugin) BeforeDiscovery(ctx context.Context) error {
	p.bus.Publish(TopicDiscoveryStarted, nil)
	return nil
}

func (p *EventsPlugin) AfterDiscovery(ctx context.Context, routes []waypost.ResolvedRoute) error {
	summary := DiscoverySummary{Routes: len(routes)}
	for _, r := range routes {
		summary.Table = append(summary.Table, string(r.Method)+" "+string(r.Path))
	}
	p.bus.Publish(TopicDiscoveryCompleted, summary)
	return nil
}

func (p *EventsPlugin) Shutdown(ctx context.Context) error {
	p.bus.Publish(TopicShutdown, nil)
	p.bus.Close()
	return nil
}
