package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* Redis implementation of webhook.Repository
 * Uses plain keys with an expiry for the records
 * Uses a sorted set scored by arrival time as the timeline index
 */

const (
	recordPrefix = "webhook"           // Record naming: webhook:{id}
	timelineKey  = "webhooks:timeline" // Sorted set: score = timestamp (unix ms), member = id; ties order by id
)

// errDeadline is the cause attached to the repository's own deadlines,
// so they can be told apart from the caller's
var errDeadline = errors.New("redis deadline exceeded")

const (
	DefaultRecordTTL      = 7 * 24 * time.Hour
	DefaultCommandTimeout = 5 * time.Second
	DefaultHealthTimeout  = 3 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

// Config holds the connection settings and deadlines for the repository
type Config struct {
	URL            string
	RecordTTL      time.Duration
	CommandTimeout time.Duration
	HealthTimeout  time.Duration
	ConnectTimeout time.Duration
	Backoff        *Backoff
	Now            func() time.Time
}

type Repository struct {
	options        *redis.Options
	recordTTL      time.Duration
	commandTimeout time.Duration
	healthTimeout  time.Duration
	now            func() time.Time
	logger         zerolog.Logger

	mu      sync.Mutex
	client  *redis.Client
	backoff *Backoff
}

/* NewRepository creates a new Redis repository
 * No connection is made here: the client is created on first use so the
 * service can start, and serve from memory, while Redis is down
 */
func NewRepository(cfg Config, logger zerolog.Logger) (*Repository, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing Redis URL: %w", err)
	}

	if cfg.RecordTTL <= 0 {
		cfg.RecordTTL = DefaultRecordTTL
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = DefaultHealthTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Backoff == nil {
		cfg.Backoff = NewBackoff()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts.DialTimeout = cfg.ConnectTimeout
	opts.ContextTimeoutEnabled = true
	// Fail fast and let the caller fall back instead of queueing retries
	opts.MaxRetries = -1

	return &Repository{
		options:        opts,
		recordTTL:      cfg.RecordTTL,
		commandTimeout: cfg.CommandTimeout,
		healthTimeout:  cfg.HealthTimeout,
		now:            cfg.Now,
		logger:         logger,
		backoff:        cfg.Backoff,
	}, nil
}

// Store writes the record and its timeline entry in one MULTI/EXEC transaction
func (r *Repository) Store(ctx context.Context, rec webhook.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling webhook: %w", err)
	}

	return r.guard(ctx, r.commandTimeout, "storing webhook", func(ctx context.Context, c *redis.Client) error {
		_, err := c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recordKey(rec.ID), data, r.recordTTL)
			// Millisecond scores: records sharing a millisecond come back in
			// reverse member (id) order, not arrival order
			pipe.ZAdd(ctx, timelineKey, redis.Z{
				Score:  float64(rec.Timestamp.UnixMilli()),
				Member: rec.ID,
			})
			return nil
		})
		return err
	})
}

// Get retrieves a record by id, returning nil when it does not exist
func (r *Repository) Get(ctx context.Context, id string) (*webhook.Record, error) {
	var out *webhook.Record

	err := r.guard(ctx, r.commandTimeout, "getting webhook", func(ctx context.Context, c *redis.Client) error {
		data, err := c.Get(ctx, recordKey(id)).Bytes()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}

		var rec webhook.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decoding webhook %s: %w: %w", id, webhook.ErrParse, err)
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// List reads the newest ids from the timeline and fetches their records in one pipeline
func (r *Repository) List(ctx context.Context, limit int) ([]webhook.Record, error) {
	if limit <= 0 {
		return []webhook.Record{}, nil
	}

	var out []webhook.Record

	err := r.guard(ctx, r.commandTimeout, "listing webhooks", func(ctx context.Context, c *redis.Client) error {
		ids, err := c.ZRevRange(ctx, timelineKey, 0, int64(limit-1)).Result()
		if err != nil {
			return err
		}

		records := make([]webhook.Record, 0, len(ids))
		if len(ids) == 0 {
			out = records
			return nil
		}

		// Use pipeline for efficient batch operations
		cmds := make([]*redis.StringCmd, len(ids))
		_, err = c.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, id := range ids {
				cmds[i] = pipe.Get(ctx, recordKey(id))
			}
			return nil
		})
		if err != nil && err != redis.Nil {
			return err
		}

		for i, cmd := range cmds {
			data, err := cmd.Bytes()
			if err != nil {
				// Expired record still referenced by the timeline
				continue
			}

			var rec webhook.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				r.logger.Warn().Err(err).Str("id", ids[i]).Msg("skipping malformed webhook")
				continue
			}
			records = append(records, rec)
		}

		out = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Delete removes the records and their timeline entries in one MULTI/EXEC transaction
func (r *Repository) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
		members[i] = id
	}

	return r.guard(ctx, r.commandTimeout, "deleting webhooks", func(ctx context.Context, c *redis.Client) error {
		_, err := c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			pipe.ZRem(ctx, timelineKey, members...)
			return nil
		})
		return err
	})
}

// Count returns the number of entries in the timeline
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64

	err := r.guard(ctx, r.commandTimeout, "counting webhooks", func(ctx context.Context, c *redis.Client) error {
		var err error
		n, err = c.ZCard(ctx, timelineKey).Result()
		return err
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}

// HealthCheck pings Redis under the short health deadline
func (r *Repository) HealthCheck(ctx context.Context) bool {
	err := r.guard(ctx, r.healthTimeout, "pinging Redis", func(ctx context.Context, c *redis.Client) error {
		return c.Ping(ctx).Err()
	})
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Debug().Err(err).Msg("Redis health check abandoned by caller")
			return false
		}
		r.logger.Warn().Err(err).Msg("Redis health check failed")
		return false
	}

	return true
}

// Close closes the Redis connection if one was opened
func (r *Repository) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}

	err := r.client.Close()
	r.client = nil
	if err != nil {
		return fmt.Errorf("closing Redis connection: %w", err)
	}

	return nil
}

/* conn returns the shared client, creating it on first use
 * While the backoff gate is closed it fails immediately so callers can fall back
 */
func (r *Repository) conn(ctx context.Context) (*redis.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	now := r.now()
	if wait := r.backoff.Wait(now); wait > 0 {
		return nil, fmt.Errorf("%w: next reconnect attempt in %s", webhook.ErrConnection, wait)
	}

	client := redis.NewClient(r.options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if callerDone(ctx) {
			// Not the server's fault, keep the gate open
			return nil, fmt.Errorf("connecting to Redis: %w", context.Cause(ctx))
		}
		delay := r.backoff.Failure(now)
		r.logger.Warn().
			Err(err).
			Int("attempt", r.backoff.Attempts()).
			Dur("retry_in", delay).
			Msg("Redis connection failed, will use fallback storage")
		return nil, fmt.Errorf("connecting to Redis: %w: %w", webhook.ErrConnection, err)
	}

	r.backoff.Reset()
	r.client = client
	r.logger.Info().Str("addr", r.options.Addr).Msg("Redis client connected")

	return client, nil
}

/* guard runs fn against the shared client under a deadline
 * The caller gets ErrTimeout when the deadline passes, even if fn is still running.
 * When the caller's own context ends first, its error is returned unclassified
 */
func (r *Repository) guard(parent context.Context, timeout time.Duration, op string, fn func(context.Context, *redis.Client) error) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeoutCause(parent, timeout, errDeadline)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		c, err := r.conn(ctx)
		if err != nil {
			done <- err
			return
		}
		done <- fn(ctx, c)
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if parent.Err() != nil {
			return fmt.Errorf("%s: %w", op, parent.Err())
		}
		if ctx.Err() != nil {
			return timeoutError(op, timeout)
		}
		return classify(op, err)
	case <-ctx.Done():
		if parent.Err() != nil {
			return fmt.Errorf("%s: %w", op, parent.Err())
		}
		return timeoutError(op, timeout)
	}
}

// callerDone reports whether ctx ended because of the caller rather than a repository deadline
func callerDone(ctx context.Context) bool {
	return ctx.Err() != nil && !errors.Is(context.Cause(ctx), errDeadline)
}

func timeoutError(op string, timeout time.Duration) error {
	return fmt.Errorf("%s: %w after %s", op, webhook.ErrTimeout, timeout)
}

/* classify maps backend errors onto the webhook error taxonomy
 * Anything that is not a timeout or a decode failure counts as the backend being unusable
 */
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, webhook.ErrConnection) || errors.Is(err, webhook.ErrTimeout) || errors.Is(err, webhook.ErrParse) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %w", op, webhook.ErrTimeout, err)
	}

	return fmt.Errorf("%s: %w: %w", op, webhook.ErrConnection, err)
}

// Helper functions

func recordKey(id string) string {
	return fmt.Sprintf("%s:%s", recordPrefix, id)
}
