package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-vpn-subscription/internal/config"
)

// Nil is returned by Get on a missing key.
const Nil = redis.Nil

// RedisClient is the subset of Redis the promo cache and the redeem limiter need.
type RedisClient interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// IncrWindow increments key and returns the new value. The first increment
	// of a window sets the expiry in the same MULTI/EXEC, so a counter never
	// outlives its window.
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	Close() error
}

// PromoCacheKey is where a promo code definition is cached.
func PromoCacheKey(code string) string { return "promo:" + code }

// PromoRedeemKey buckets redeem attempts per user.
func PromoRedeemKey(userID int64) string {
	return fmt.Sprintf("rate_limit:%d:redeem", userID)
}

// GetJSON decodes the value at key into v. A missing key returns Nil.
func GetJSON(ctx context.Context, c RedisClient, key string, v any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v at key for ttl.
func SetJSON(ctx context.Context, c RedisClient, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, b, ttl)
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli *redis.Client
}

// NewClient dials Redis and fails fast when it is unreachable.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redClient, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.URL, err)
	}
	return &redClient{cli: c}, nil
}

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redClient) Get(ctx context.Context, key string) (string, error) {
	return c.cli.Get(ctx, key).Result()
}

func (c *redClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.cli.Set(ctx, key, value, expiration).Err()
}

func (c *redClient) Del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}

func (c *redClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		// SET NX opens the window with its TTL; INCR keeps an existing TTL.
		p.SetNX(ctx, key, 0, window)
		incr = p.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *redClient) Close() error { return c.cli.Close() }
