package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// this closes the client

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Revoke marks a session id as dead until its natural expiry; the TTL keeps
// the denylist from growing without bound.

func (c *Client) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return c.redisdb.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether a session id is on the denylist.

func (c *Client) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.redisdb.Exists(ctx, revokedKeyPrefix+jti).Result()

	if err != nil {
		return false, err
	}

	return n > 0, nil
}
