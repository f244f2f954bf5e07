package config

import (
	"time"

	"github.com/vietddude/dbguard/internal/core/resilience"
	redisclient "github.com/vietddude/dbguard/internal/infra/redis"
	"github.com/vietddude/dbguard/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
	Redis    redisclient.Config `yaml:"redis"`
	Retry    RetryConfig        `yaml:"retry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	GRPCPort       int           `yaml:"grpc_port"` // 0 disables the gRPC health service
	HealthInterval time.Duration `yaml:"health_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RetryConfig holds the database retry policy and attempt deadlines.
type RetryConfig struct {
	MaxRetries        *int          `yaml:"max_retries"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	RetryableCodes    []string      `yaml:"retryable_codes"`
	OperationTimeout  time.Duration `yaml:"operation_timeout"`
	HealthTimeout     time.Duration `yaml:"health_timeout"`
}

// Policy converts the config into an executor policy.
func (c RetryConfig) Policy() resilience.Policy {
	p := resilience.DefaultPolicy()
	if c.MaxRetries != nil {
		p.MaxRetries = *c.MaxRetries
	}
	if c.BaseDelay != 0 {
		p.BaseDelay = c.BaseDelay
	}
	if c.MaxDelay != 0 {
		p.MaxDelay = c.MaxDelay
	}
	if c.BackoffMultiplier != 0 {
		p.BackoffMultiplier = c.BackoffMultiplier
	}
	if len(c.RetryableCodes) > 0 {
		p.RetryableCodes = c.RetryableCodes
	}
	return p
}

// CachePolicy is the retry policy for snapshot cache calls. It shares the
// backoff settings of the database policy with the cache's own retry budget.
func (c AppConfig) CachePolicy() resilience.Policy {
	p := c.Retry.Policy()
	p.MaxRetries = c.Redis.MaxRetries
	return p
}
