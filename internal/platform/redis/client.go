// Package redis owns the shared Redis connection used by the preference
// store. Redis is optional: deployments without it fall back to in-memory
// stores.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"recproxy/internal/platform/config"
)

// Client embeds the go-redis client so stores keep the full command surface.
type Client struct {
	*redis.Client
}

// New dials Redis from config and verifies the connection with a ping. An
// empty URL means Redis is not configured; the caller gets a nil client and
// is expected to wire in-memory stores instead.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
