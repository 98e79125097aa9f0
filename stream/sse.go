package stream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrClosed is returned by Send once the writer has been closed.
var ErrClosed = errors.New("stream closed")

// DefaultWriteTimeout bounds a single event write to a slow client.
const DefaultWriteTimeout = 10 * time.Second

// SSEWriter is a Sink writing Server-Sent Events frames to an HTTP response.
type SSEWriter struct {
	mu           sync.Mutex
	w            io.Writer
	rc           *http.ResponseController
	writeTimeout time.Duration
	closed       bool
}

// NewSSEWriter wraps w. A zero writeTimeout disables per-write deadlines.
func NewSSEWriter(w http.ResponseWriter, writeTimeout time.Duration) *SSEWriter {
	return &SSEWriter{
		w:            w,
		rc:           http.NewResponseController(w),
		writeTimeout: writeTimeout,
	}
}

// Send writes one "data:" frame and flushes it.
func (s *SSEWriter) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.writeTimeout > 0 {
		err := s.rc.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			s.closed = true
			return fmt.Errorf("setting write deadline: %w", err)
		}
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		s.closed = true
		return fmt.Errorf("writing event: %w", err)
	}

	if err := s.rc.Flush(); err != nil {
		s.closed = true
		return fmt.Errorf("flushing event: %w", err)
	}

	return nil
}

// Close stops further writes. It waits for an in-flight Send to finish.
func (s *SSEWriter) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
