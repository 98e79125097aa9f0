package webhook

import (
	"fmt"
	"time"
)

/* Tier represents the storage backend that served an operation
 * Durable is the Redis store, Fallback the bounded in-memory buffer
 */
type Tier int

const (
	Durable Tier = iota + 1
	Fallback
)

// String returns the wire name of the tier, as reported in API responses
func (t Tier) String() string {
	switch t {
	case Durable:
		return "redis"
	case Fallback:
		return "memory"
	default:
		return "unknown"
	}
}

// ParseTier returns the Tier with the given wire name
func ParseTier(s string) (Tier, error) {
	switch s {
	case "redis":
		return Durable, nil
	case "memory":
		return Fallback, nil
	default:
		return 0, fmt.Errorf("invalid tier: %q", s)
	}
}

// MarshalText encodes the tier using its wire name
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a wire name, rejecting unknown tiers
func (t *Tier) UnmarshalText(text []byte) error {
	tier, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

/* Decision is the cached answer to "which tier serves requests right now"
 * CheckedAt is the instant the health check behind it completed
 */
type Decision struct {
	Tier      Tier
	CheckedAt time.Time
}

// Fresh reports whether the decision is still usable at now for the given ttl
func (d Decision) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(d.CheckedAt) < ttl
}
