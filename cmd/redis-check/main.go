package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-chi/httplog"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/marcelsud/webhook-viewer/config"
	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/marcelsud/webhook-viewer/webhook/redis"
)

/* redis-check verifies that REDIS_URL points at a usable server
 * It round-trips a key and a sorted-set entry under a throwaway prefix,
 * removes them, and then stores and deletes one record through the repository
 */

const probeTTL = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if cfg.RedisURL == "" {
		return errors.New("REDIS_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parsing Redis URL: %w", err)
	}
	client := goredis.NewClient(opts)
	defer client.Close()

	fmt.Printf("Connecting to %s...\n", opts.Addr)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	fmt.Println("PING ok")

	probe := "redis-check:" + uuid.NewString()
	key, zkey := probe+":key", probe+":timeline"
	defer client.Del(context.Background(), key, zkey)

	if err := client.Set(ctx, key, "hello", probeTTL).Err(); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	got, err := client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if got != "hello" {
		return fmt.Errorf("get: expected %q, got %q", "hello", got)
	}
	fmt.Println("SET/GET ok")

	now := float64(time.Now().UnixMilli())
	err = client.ZAdd(ctx, zkey,
		goredis.Z{Score: now, Member: "older"},
		goredis.Z{Score: now + 1, Member: "newer"},
	).Err()
	if err != nil {
		return fmt.Errorf("zadd: %w", err)
	}
	members, err := client.ZRevRange(ctx, zkey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("zrevrange: %w", err)
	}
	if len(members) != 2 || members[0] != "newer" {
		return fmt.Errorf("zrevrange: unexpected order %v", members)
	}
	fmt.Println("ZADD/ZREVRANGE ok")

	if err := client.Del(ctx, key, zkey).Err(); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	fmt.Println("cleanup ok")

	return checkRepository(ctx, cfg)
}

// checkRepository stores and removes one record the way the API does
func checkRepository(ctx context.Context, cfg *config.Config) error {
	repo, err := redis.NewRepository(redis.Config{
		URL:            cfg.RedisURL,
		RecordTTL:      probeTTL,
		CommandTimeout: cfg.CommandTimeout(),
		HealthTimeout:  cfg.HealthCheckTimeout(),
	}, httplog.NewLogger("redis-check", httplog.Options{Concise: true}))
	if err != nil {
		return err
	}
	defer repo.Close(ctx)

	if !repo.HealthCheck(ctx) {
		return errors.New("repository health check failed")
	}

	rec := webhook.Record{
		ID:        "redis-check-" + uuid.NewString(),
		Method:    "POST",
		URL:       "/api/webhook/redis-check",
		Headers:   map[string]string{"user-agent": "redis-check"},
		Timestamp: time.Now(),
	}
	if err := repo.Store(ctx, rec); err != nil {
		return err
	}
	stored, err := repo.Get(ctx, rec.ID)
	if err != nil {
		return err
	}
	if stored == nil || stored.ID != rec.ID {
		return errors.New("stored record could not be read back")
	}
	if err := repo.Delete(ctx, []string{rec.ID}); err != nil {
		return err
	}
	fmt.Println("repository round-trip ok")
	return nil
}
