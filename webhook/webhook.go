package webhook

import (
	"encoding/json"
	"time"
)

/* Record represents a captured HTTP request
 * Uses value semantics as it represents data, not behavior
 * Immutable once created: the capture layer builds it, the storage tiers only copy it
 */
type Record struct {
	ID        string            `json:"id"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Body      json.RawMessage   `json:"body,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// MarshalJSON encodes the timestamp as RFC 3339 with millisecond precision
func (r Record) MarshalJSON() ([]byte, error) {
	type Alias Record
	return json.Marshal(&struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Timestamp: r.Timestamp.UTC().Format(TimestampLayout),
		Alias:     (*Alias)(&r),
	})
}

// UnmarshalJSON parses the JSON-encoded record
func (r *Record) UnmarshalJSON(data []byte) error {
	type Alias Record
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		r.Timestamp = time.Time{}
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
	if err != nil {
		return err
	}
	r.Timestamp = ts
	return nil
}

// TimestampLayout is the ISO-8601 layout used on the wire
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// IDSet builds a membership set from a list of ids
func IDSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
