package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "sessionkeeper:subscription:"

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	const op = "billing.NewRedisClient"

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rdb, nil
}

// CachedClient remembers answers of the wrapped Client for ttl. Cache errors
// are logged and the call falls through to the provider; provider errors are
// never cached.
type CachedClient struct {
	next Client
	rdb  *redis.Client
	ttl  time.Duration
	log  logging.Logger
}

func NewCachedClient(next Client, rdb *redis.Client, ttl time.Duration, log logging.Logger) *CachedClient {
	return &CachedClient{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With("module", "billing-cache"),
	}
}

func (c *CachedClient) IsSubscribed(ctx context.Context, userID string) (bool, error) {
	key := cacheKeyPrefix + userID

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return val == "1", nil
	case !errors.Is(err, redis.Nil):
		c.log.Warn(ctx, "subscription cache read failed", "error", err)
	}

	active, err := c.next.IsSubscribed(ctx, userID)
	if err != nil {
		return false, err
	}

	v := "0"
	if active {
		v = "1"
	}
	if err := c.rdb.Set(ctx, key, v, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "subscription cache write failed", "error", err)
	}
	return active, nil
}
