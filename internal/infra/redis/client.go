package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis connection used for listing snapshots.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL         string        `yaml:"url"`
	Password    string        `yaml:"password"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
	MaxRetries  int           `yaml:"max_retries"` // snapshot calls are best-effort; 0 means a single attempt
	Timeout     time.Duration `yaml:"timeout"`
}

// NewClient creates a new Redis client and verifies the connection.
func NewClient(cfg Config) (*Client, error) {
	c, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return c, nil
}

// Open creates a Redis client without connecting.
func Open(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	return &Client{rdb: redis.NewClient(opts)}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Probe implements resilience.Prober.
func (c *Client) Probe(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
