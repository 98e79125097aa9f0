package webhook

import "context"

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Reader provides read operations for stored webhooks
type Reader interface {
	/* Get returns nil, nil when the id is unknown
	 * Errors are reserved for backend trouble
	 */
	Get(ctx context.Context, id string) (*Record, error)
	/* List returns up to limit records, newest first
	 * Records that cannot be decoded are skipped, not reported
	 */
	List(ctx context.Context, limit int) ([]Record, error)
}

// Writer provides write operations for stored webhooks
type Writer interface {
	/* Store writes the record and its timeline entry as a single batch
	 * Either both become visible or the call fails
	 */
	Store(ctx context.Context, record Record) error
	// Delete removes the records and their timeline entries; unknown ids are ignored
	Delete(ctx context.Context, ids []string) error
}

// HealthChecker reports whether a backend is currently usable
type HealthChecker interface {
	// HealthCheck never fails: any backend error means "not alive"
	HealthCheck(ctx context.Context) bool
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Reader
	Writer
	HealthChecker
	Close(ctx context.Context) error
}

/* Buffer is the in-memory fallback tier
 * It has no failure modes, so none of its methods return errors
 */
type Buffer interface {
	Insert(record Record)
	List(limit int) []Record
	Get(id string) (Record, bool)
	Delete(ids map[string]struct{})
	Len() int
}
