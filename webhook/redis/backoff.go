package redis

import (
	"math"
	"math/rand/v2"
	"time"
)

/* Backoff gates reconnection attempts after a failed connect
 * delay(attempt) = min(2^attempt * Base, Max) + rand[0, Jitter)
 * Not safe for concurrent use: the Repository guards it with its connection mutex
 */
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter time.Duration
	// Rand returns a value in [0, n); replaced in tests for deterministic delays
	Rand func(n int64) int64

	attempt int
	next    time.Time
}

// NewBackoff returns the reconnect policy: 1s base, 30s cap, up to 1s of jitter
func NewBackoff() *Backoff {
	return &Backoff{
		Base:   time.Second,
		Max:    30 * time.Second,
		Jitter: time.Second,
		Rand:   rand.Int64N,
	}
}

// Delay computes the wait before the next attempt after attempt failures
func (b *Backoff) Delay(attempt int) time.Duration {
	d := time.Duration(float64(b.Base) * math.Pow(2, float64(attempt)))
	if d > b.Max || d <= 0 {
		d = b.Max
	}

	if b.Jitter > 0 && b.Rand != nil {
		d += time.Duration(b.Rand(int64(b.Jitter)))
	}

	return d
}

// Failure records a failed attempt at now and returns the wait until the next one
func (b *Backoff) Failure(now time.Time) time.Duration {
	d := b.Delay(b.attempt)
	b.attempt++
	b.next = now.Add(d)
	return d
}

// Wait returns how long callers must still wait at now; zero means an attempt is allowed
func (b *Backoff) Wait(now time.Time) time.Duration {
	if now.Before(b.next) {
		return b.next.Sub(now)
	}
	return 0
}

// Reset clears the failure history after a successful connect
func (b *Backoff) Reset() {
	b.attempt = 0
	b.next = time.Time{}
}

// Attempts returns the number of consecutive failed attempts
func (b *Backoff) Attempts() int {
	return b.attempt
}
