package stream

import (
	"time"

	"github.com/marcelsud/webhook-viewer/webhook"
)

// Event type constants, carried in the "type" field of every message
const (
	TypeConnected      = "connected"
	TypeHeartbeat      = "heartbeat"
	TypeWebhook        = "webhook"
	TypeWebhookDeleted = "webhook-deleted"
)

// Event is a single message on the live stream.
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"` // unix milliseconds
	Data      any    `json:"data,omitempty"`
}

// Deleted is the payload of a webhook-deleted event.
type Deleted struct {
	IDs []string `json:"ids"`
}

func connected() Event {
	return Event{Type: TypeConnected, Message: "SSE connected"}
}

func heartbeat(now time.Time) Event {
	return Event{Type: TypeHeartbeat, Timestamp: now.UnixMilli()}
}

func added(rec webhook.Record) Event {
	return Event{Type: TypeWebhook, Data: rec}
}

func deleted(ids []string) Event {
	if ids == nil {
		ids = []string{}
	}
	return Event{Type: TypeWebhookDeleted, Data: Deleted{IDs: ids}}
}
