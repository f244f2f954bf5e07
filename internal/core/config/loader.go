package config

import (
	"fmt"
	"os"
	"time"

	"github.com/vietddude/dbguard/internal/core/resilience"
	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Retry.Policy().Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	if err := cfg.CachePolicy().Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.HealthInterval == 0 {
		cfg.Server.HealthInterval = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgx"
	}
	if cfg.Redis.SnapshotTTL == 0 {
		cfg.Redis.SnapshotTTL = 10 * time.Minute
	}
	if cfg.Redis.Timeout == 0 {
		cfg.Redis.Timeout = 500 * time.Millisecond
	}
	if cfg.Retry.OperationTimeout == 0 {
		cfg.Retry.OperationTimeout = resilience.DefaultOperationTimeout
	}
	if cfg.Retry.HealthTimeout == 0 {
		cfg.Retry.HealthTimeout = resilience.DefaultHealthTimeout
	}
}
