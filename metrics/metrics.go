package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the webhook viewer.
type Metrics struct {
	// BufferLength is the number of records held by the in-memory tier
	BufferLength int64 `json:"buffer_length"`

	// DurableCount is the number of timeline entries in the durable store,
	// nil when the durable tier is not serving
	DurableCount *int64 `json:"durable_count,omitempty"`

	// Subscribers is the number of open live-stream connections
	Subscribers int64 `json:"subscribers"`

	// Tier is the storage tier currently serving requests ("redis" or "memory")
	Tier string `json:"tier"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for collecting metrics from the webhook viewer.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetBufferLength returns the number of records in the memory buffer
	GetBufferLength(ctx context.Context) int64

	// GetDurableCount returns the timeline size; ok is false when the durable tier is not serving
	GetDurableCount(ctx context.Context) (n int64, ok bool, err error)

	// GetSubscribers returns the number of live-stream subscribers
	GetSubscribers(ctx context.Context) int64

	// GetTier returns the tier currently serving requests, without probing
	GetTier(ctx context.Context) string
}
