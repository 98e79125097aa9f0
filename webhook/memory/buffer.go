// Package memory implements the in-memory fallback tier.
package memory

import (
	"sync"

	"github.com/marcelsud/webhook-viewer/webhook"
)

// DefaultCapacity is the number of records kept when no capacity is configured.
const DefaultCapacity = 100

/* Bounded ring buffer
 * Inserts prepend and truncate, so index 0 is always the newest record
 * and readers get copies, never the backing slice
 */
// Buffer keeps the most recent records, newest first.
type Buffer struct {
	mu       sync.RWMutex
	records  []webhook.Record
	capacity int
}

// NewBuffer creates a buffer holding at most capacity records.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &Buffer{
		records:  make([]webhook.Record, 0, capacity),
		capacity: capacity,
	}
}

// Insert prepends the record and drops the oldest entries beyond capacity.
func (b *Buffer) Insert(r webhook.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.records) + 1
	if n > b.capacity {
		n = b.capacity
	}

	next := make([]webhook.Record, n)
	next[0] = r
	copy(next[1:], b.records)
	b.records = next
}

// List returns up to limit records, newest first. The result is a copy.
func (b *Buffer) List(limit int) []webhook.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit < 0 {
		limit = 0
	}
	if limit > len(b.records) {
		limit = len(b.records)
	}

	out := make([]webhook.Record, limit)
	copy(out, b.records[:limit])

	return out
}

// Get returns the record with the given id, if buffered.
func (b *Buffer) Get(id string) (webhook.Record, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, r := range b.records {
		if r.ID == id {
			return r, true
		}
	}

	return webhook.Record{}, false
}

// Delete removes every record whose id is in ids, preserving the order of the rest.
func (b *Buffer) Delete(ids map[string]struct{}) {
	if len(ids) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]webhook.Record, 0, len(b.records))
	for _, r := range b.records {
		if _, drop := ids[r.ID]; drop {
			continue
		}
		next = append(next, r)
	}
	b.records = next
}

// Clear removes all records.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = make([]webhook.Record, 0, b.capacity)
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.records)
}

// Capacity returns the maximum number of records kept.
func (b *Buffer) Capacity() int {
	return b.capacity
}
