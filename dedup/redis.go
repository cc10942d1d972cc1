package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tsawler/regiontag/logging"
)

// DefaultTTL is how long a job's processed set lives in Redis.
const DefaultTTL = 24 * time.Hour

// DefaultTimeout bounds a single MarkIfNew round trip.
const DefaultTimeout = 5 * time.Second

// KeyPrefix is prepended to the job id to form the Redis key.
const KeyPrefix = "regiontag:processed:"

// Config configures a Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("dedup: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("dedup: ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RedisGuard is a Guard backed by a Redis set, one set per job.
//
// When Redis cannot be reached MarkIfNew logs a warning and reports the id
// as new, so a flaky connection never silently drops a table.
type RedisGuard struct {
	client  redis.Cmdable
	key     string
	ttl     time.Duration
	timeout time.Duration
}

// RedisOption configures a RedisGuard.
type RedisOption func(*RedisGuard)

// WithTTL sets the expiry applied to the job's set. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(g *RedisGuard) { g.ttl = ttl }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) RedisOption {
	return func(g *RedisGuard) { g.timeout = d }
}

// NewRedisGuard returns a guard that records ids for job in client.
func NewRedisGuard(client redis.Cmdable, job string, opts ...RedisOption) *RedisGuard {
	g := &RedisGuard{
		client:  client,
		key:     KeyPrefix + job,
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key returns the Redis key holding the job's processed ids.
func (g *RedisGuard) Key() string {
	return g.key
}

// MarkIfNew implements Guard.
func (g *RedisGuard) MarkIfNew(id string) bool {
	ctx := context.Background()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	isNew, err := g.MarkIfNewContext(ctx, id)
	if err != nil {
		logging.For("dedup").Warn("redis guard unavailable, treating table as new",
			"table", id, "key", g.key, "error", err)
		return true
	}
	return isNew
}

// MarkIfNewContext adds id to the job's set and reports whether it was
// absent. SADD is atomic, so concurrent callers racing on the same id see
// exactly one true.
func (g *RedisGuard) MarkIfNewContext(ctx context.Context, id string) (bool, error) {
	added, err := g.client.SAdd(ctx, g.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: sadd %s: %w", g.key, err)
	}
	if added == 1 && g.ttl > 0 {
		if err := g.client.Expire(ctx, g.key, g.ttl).Err(); err != nil {
			logging.For("dedup").Debug("failed to set expiry", "key", g.key, "error", err)
		}
	}
	return added == 1, nil
}

// Reset deletes the job's set.
func (g *RedisGuard) Reset(ctx context.Context) error {
	return g.client.Del(ctx, g.key).Err()
}
