// Package config loads service configuration from an optional YAML file
// with environment overrides for deploy-time settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"stock-dashboard/go-services/services/clickhouse"
	"stock-dashboard/go-services/services/engine"
)

type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

type KeyPoolConfig struct {
	Keys          []string      `yaml:"keys"`
	RatePerMinute float64       `yaml:"rate_per_minute"`
	Cooldown      time.Duration `yaml:"cooldown"`
}

type Config struct {
	Environment string            `yaml:"environment"`
	LogLevel    string            `yaml:"log_level"`
	Server      ServerConfig      `yaml:"server"`
	ClickHouse  clickhouse.Config `yaml:"clickhouse"`
	Engine      engine.Config     `yaml:"engine"`
	Commentary  KeyPoolConfig     `yaml:"commentary"`
}

// Load reads the YAML file at path when it exists, then applies
// environment overrides. An empty path yields pure defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Environment: "dev",
		LogLevel:    "info",
		Server:      ServerConfig{HTTPPort: 8080},
		Engine:      engine.DefaultConfig(),
		Commentary: KeyPoolConfig{
			RatePerMinute: 10,
			Cooldown:      5 * time.Minute,
		},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Server.HTTPPort <= 0 {
		return nil, fmt.Errorf("invalid http_port %d", cfg.Server.HTTPPort)
	}
	if cfg.Engine.InitialCapital <= 0 {
		return nil, fmt.Errorf("invalid initial_capital %v", cfg.Engine.InitialCapital)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BACKTEST_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = port
		}
	}
	if v := os.Getenv("BACKTEST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CLICKHOUSE_ADDR"); v != "" {
		cfg.ClickHouse.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_DATABASE"); v != "" {
		cfg.ClickHouse.Database = v
	}
	if v := os.Getenv("CLICKHOUSE_USER"); v != "" {
		cfg.ClickHouse.Username = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		cfg.ClickHouse.Password = v
	}
}
