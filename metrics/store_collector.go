package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-viewer/webhook"
)

// Lener is anything that can report its size, like the buffer or the stream hub
type Lener interface {
	Len() int
}

// Counter reports the number of records in a durable store
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// TierSource exposes the cached tier decision without triggering a health check
type TierSource interface {
	Current() (webhook.Decision, bool)
}

// StoreCollector implements the Collector interface over the live components
type StoreCollector struct {
	buffer      Lener
	durable     Counter
	subscribers Lener
	tiers       TierSource
}

// NewStoreCollector creates a new collector. durable may be nil when no Redis is configured.
func NewStoreCollector(buffer Lener, durable Counter, subscribers Lener, tiers TierSource) *StoreCollector {
	return &StoreCollector{
		buffer:      buffer,
		durable:     durable,
		subscribers: subscribers,
		tiers:       tiers,
	}
}

// Collect gathers all metrics
func (c *StoreCollector) Collect(ctx context.Context) (Metrics, error) {
	m := Metrics{
		BufferLength: c.GetBufferLength(ctx),
		Subscribers:  c.GetSubscribers(ctx),
		Tier:         c.GetTier(ctx),
		Timestamp:    time.Now(),
	}

	n, ok, err := c.GetDurableCount(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting durable count: %w", err)
	}
	if ok {
		m.DurableCount = &n
	}

	return m, nil
}

func (c *StoreCollector) GetBufferLength(_ context.Context) int64 {
	return int64(c.buffer.Len())
}

// GetDurableCount only asks the durable store while it is the serving tier,
// so a scrape never waits on an unreachable Redis
func (c *StoreCollector) GetDurableCount(ctx context.Context) (int64, bool, error) {
	if c.durable == nil || c.GetTier(ctx) != webhook.Durable.String() {
		return 0, false, nil
	}

	n, err := c.durable.Count(ctx)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *StoreCollector) GetSubscribers(_ context.Context) int64 {
	return int64(c.subscribers.Len())
}

func (c *StoreCollector) GetTier(_ context.Context) string {
	d, ok := c.tiers.Current()
	if !ok {
		return webhook.Fallback.String()
	}
	return d.Tier.String()
}
