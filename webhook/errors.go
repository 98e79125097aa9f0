package webhook

import "errors"

/* Errors surfaced by durable store implementations
 * Callers match them with errors.Is; the wrapped cause carries the backend detail
 * A missing record is not an error: Get returns nil, nil
 */
var (
	// ErrConnection means the backend could not be reached
	ErrConnection = errors.New("durable store unreachable")
	// ErrTimeout means the backend did not answer before the command deadline
	ErrTimeout = errors.New("durable store command timed out")
	// ErrParse means a stored value could not be decoded
	ErrParse = errors.New("malformed stored record")
)
