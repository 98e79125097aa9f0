package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 * It decides, per call, which tier serves a request and never fails outright:
 * the in-memory buffer is always written, the durable store when it is healthy
 */

// DefaultHealthCheckTTL is how long a tier decision is reused before re-checking
const DefaultHealthCheckTTL = 30 * time.Second

// UseCase defines the storage operations used by the HTTP layer
type UseCase interface {
	Store(ctx context.Context, record Record) Tier
	List(ctx context.Context, limit int) ([]Record, Tier)
	Get(ctx context.Context, id string) (*Record, Tier)
	Delete(ctx context.Context, ids []string) Tier
	Decide(ctx context.Context) Tier
}

type Service struct {
	Buffer  Buffer
	Durable Repository

	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	decision *Decision
}

// Option configures a Service
type Option func(*Service)

// WithHealthCheckTTL overrides how long a tier decision is cached
func WithHealthCheckTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces the time source used to age tier decisions
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger used to report failovers
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new storage service with dependency injection
// A nil durable repository means the service always runs from memory
func NewService(buffer Buffer, durable Repository, opts ...Option) *Service {
	s := &Service{
		Buffer:  buffer,
		Durable: durable,
		ttl:     DefaultHealthCheckTTL,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/* Decide returns the tier that should serve requests right now
 * A fresh cached decision is reused; otherwise the durable store is probed.
 * Concurrent callers may probe redundantly, the last result wins.
 * A probe cut short by the caller's own context is used once and not cached
 */
func (s *Service) Decide(ctx context.Context) Tier {
	if s.Durable == nil {
		return Fallback
	}

	if d, ok := s.Current(); ok && d.Fresh(s.now(), s.ttl) {
		return d.Tier
	}

	tier := Fallback
	if s.Durable.HealthCheck(ctx) {
		tier = Durable
	}

	// The caller went away mid-probe: the answer says nothing about the backend
	if ctx.Err() != nil {
		return tier
	}

	s.mu.Lock()
	s.decision = &Decision{Tier: tier, CheckedAt: s.now()}
	s.mu.Unlock()

	s.logger.Debug().Str("tier", tier.String()).Msg("storage tier decided")

	return tier
}

// Current returns the cached decision without probing
func (s *Service) Current() (Decision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.decision == nil {
		return Decision{}, false
	}
	return *s.decision, true
}

// Invalidate drops the cached decision so the next call re-checks
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.decision = nil
	s.mu.Unlock()
}

// Store buffers the record and writes it through to the durable store when healthy
func (s *Service) Store(ctx context.Context, record Record) Tier {
	s.Buffer.Insert(record)

	if s.Decide(ctx) != Durable {
		return Fallback
	}

	if err := s.Durable.Store(ctx, record); err != nil {
		s.failover(ctx, err, "store")
		return Fallback
	}

	return Durable
}

// List returns up to limit records, newest first, from the tier currently serving reads
func (s *Service) List(ctx context.Context, limit int) ([]Record, Tier) {
	if s.Decide(ctx) == Durable {
		records, err := s.Durable.List(ctx, limit)
		if err == nil {
			return records, Durable
		}
		s.failover(ctx, err, "list")
	}

	return s.Buffer.List(limit), Fallback
}

// Get returns a single record, or nil when no tier knows it
// A miss reports Durable when the durable store was read successfully
func (s *Service) Get(ctx context.Context, id string) (*Record, Tier) {
	tier := Fallback
	if s.Decide(ctx) == Durable {
		record, err := s.Durable.Get(ctx, id)
		if err == nil && record != nil {
			return record, Durable
		}
		if err != nil {
			s.failover(ctx, err, "get")
		} else {
			// The durable store answered; a miss there is still a durable answer
			tier = Durable
		}
	}

	if record, ok := s.Buffer.Get(id); ok {
		return &record, Fallback
	}
	return nil, tier
}

// Delete removes the records from the buffer and, when healthy, from the durable store
func (s *Service) Delete(ctx context.Context, ids []string) Tier {
	s.Buffer.Delete(IDSet(ids))

	if s.Decide(ctx) != Durable {
		return Fallback
	}

	if err := s.Durable.Delete(ctx, ids); err != nil {
		s.failover(ctx, err, "delete")
		return Fallback
	}

	return Durable
}

/* failover drops the cached decision after a durable failure
 * Errors caused by the caller's own cancellation or deadline leave it alone
 */
func (s *Service) failover(ctx context.Context, err error, op string) {
	if ctx.Err() != nil {
		s.logger.Debug().Err(err).Str("op", op).Msg("request ended during Redis operation")
		return
	}
	s.Invalidate()
	s.logger.Warn().Err(err).Str("op", op).Msg("Redis operation failed, using memory storage")
}
