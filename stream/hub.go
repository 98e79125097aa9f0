// Package stream fans out webhook events to live subscribers.
//
// The Hub keeps no history: a subscriber only sees events published while it
// is registered and loads earlier records through the list endpoint.
package stream

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/rs/zerolog"
)

// DefaultHeartbeatInterval is how often each subscriber is pinged.
const DefaultHeartbeatInterval = 30 * time.Second

// Sink is the writable end of one open stream.
// Send must be safe for concurrent use; an error means the stream is dead.
type Sink interface {
	Send(payload []byte) error
}

// Subscriber is a registered sink. Done is closed once it is removed from the hub.
type Subscriber struct {
	ID string

	sink Sink
	done chan struct{}
	once sync.Once
}

// Done is closed when the subscriber has been unsubscribed.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Hub tracks open subscribers and pushes events to all of them.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber

	heartbeat time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithHeartbeatInterval sets the per-subscriber ping cadence.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithClock sets the time source used for heartbeat timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subscribers: make(map[string]*Subscriber),
		heartbeat:   DefaultHeartbeatInterval,
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe acknowledges the sink with a connected event, registers it and
// starts its heartbeat. Call Unsubscribe when the transport closes.
func (h *Hub) Subscribe(sink Sink) (*Subscriber, error) {
	sub := &Subscriber{
		ID:   uuid.NewString(),
		sink: sink,
		done: make(chan struct{}),
	}

	payload, err := json.Marshal(connected())
	if err != nil {
		return nil, fmt.Errorf("marshaling connected event: %w", err)
	}
	if err := sink.Send(payload); err != nil {
		return nil, fmt.Errorf("sending connected event: %w", err)
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Debug().Str("subscriber", sub.ID).Int("total_clients", count).Msg("stream client connected")

	go h.keepalive(sub)

	return sub, nil
}

// Unsubscribe removes the subscriber and stops its heartbeat. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, registered := h.subscribers[sub.ID]
	delete(h.subscribers, sub.ID)
	count := len(h.subscribers)
	h.mu.Unlock()

	sub.once.Do(func() { close(sub.done) })

	if registered {
		h.logger.Debug().Str("subscriber", sub.ID).Int("total_clients", count).Msg("stream client disconnected")
	}
}

// PublishAdded pushes a webhook event to every subscriber and returns how many received it.
func (h *Hub) PublishAdded(rec webhook.Record) int {
	return h.publish(added(rec))
}

// PublishDeleted pushes a webhook-deleted event to every subscriber and returns how many received it.
func (h *Hub) PublishDeleted(ids []string) int {
	return h.publish(deleted(ids))
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

// Close unsubscribes everyone.
func (h *Hub) Close() {
	for _, sub := range h.snapshot() {
		h.Unsubscribe(sub)
	}
}

/* publish offers the event to a snapshot of the subscribers
 * Delivery is independent per subscriber: a failed write removes that one only
 */
func (h *Hub) publish(evt Event) int {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error().Err(err).Str("type", evt.Type).Msg("failed to marshal stream event")
		return 0
	}

	subs := h.snapshot()
	delivered := 0
	for _, sub := range subs {
		if err := sub.sink.Send(payload); err != nil {
			h.logger.Debug().Err(err).Str("subscriber", sub.ID).Msg("stream write failed, removing client")
			h.Unsubscribe(sub)
			continue
		}
		delivered++
	}

	h.logger.Debug().
		Str("type", evt.Type).
		Int("delivered", delivered).
		Int("total_clients", len(subs)).
		Msg("stream event broadcast")

	return delivered
}

func (h *Hub) snapshot() []*Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := make([]*Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	return subs
}

// keepalive pings one subscriber until it is removed or a ping fails.
func (h *Hub) keepalive(sub *Subscriber) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-sub.done:
			return
		case <-ticker.C:
			payload, err := json.Marshal(heartbeat(h.now()))
			if err != nil {
				continue
			}
			if err := sub.sink.Send(payload); err != nil {
				h.logger.Debug().Err(err).Str("subscriber", sub.ID).Msg("heartbeat failed, removing client")
				h.Unsubscribe(sub)
				return
			}
		}
	}
}
