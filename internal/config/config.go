// Package config loads the proxy configuration with env > file >
// default precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mvollmer/gallery-api-cache/pkg/cache"
)

// ListenConfig holds the HTTP listener settings.
type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

// RedisConfig holds the durable-tier connection settings.
type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// UpstreamConfig holds the gallery API settings.
type UpstreamConfig struct {
	BaseURL        string `koanf:"baseurl"`
	APIToken       string `koanf:"apitoken"`
	PropertyID     int64  `koanf:"propertyid"`
	TimeoutSeconds int    `koanf:"timeoutseconds"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// CacheConfig holds cache tuning.
type CacheConfig struct {
	// VolatileEnabled turns the in-process tier on. Disabling it runs
	// the cache durable-only.
	VolatileEnabled bool `koanf:"volatileenabled"`

	// TTLSeconds overrides the default TTL per kind, keyed by kind
	// name (sidebar, caselist, case, carousel, filters, favorites).
	TTLSeconds map[string]int `koanf:"ttlseconds"`
}

// Config is the effective proxy configuration.
type Config struct {
	Listen   ListenConfig   `koanf:"listen"`
	Redis    RedisConfig    `koanf:"redis"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Logging  LoggingConfig  `koanf:"logging"`
	Cache    CacheConfig    `koanf:"cache"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Listen:   ListenConfig{Address: "0.0.0.0", Port: 8080},
		Redis:    RedisConfig{Address: "localhost:6379"},
		Upstream: UpstreamConfig{TimeoutSeconds: 30},
		Logging:  LoggingConfig{Level: "info"},
		Cache:    CacheConfig{VolatileEnabled: true},
	}
}

// Validate checks the configuration for required fields.
func (c Config) Validate() error {
	if c.Redis.Address == "" {
		return errors.New("config: redis address required")
	}
	if c.Upstream.BaseURL == "" {
		return errors.New("config: upstream base URL required")
	}
	if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("config: invalid listen port %d", c.Listen.Port)
	}
	for name := range c.Cache.TTLSeconds {
		if _, err := cache.ParseKind(name); err != nil {
			return fmt.Errorf("config: ttl override: %w", err)
		}
	}
	return nil
}

// TTLOverrides converts the per-kind TTL seconds to cache manager
// overrides. Validate must have accepted the config first.
func (c Config) TTLOverrides() map[cache.Kind]time.Duration {
	if len(c.Cache.TTLSeconds) == 0 {
		return nil
	}
	overrides := make(map[cache.Kind]time.Duration, len(c.Cache.TTLSeconds))
	for name, seconds := range c.Cache.TTLSeconds {
		if seconds <= 0 {
			continue
		}
		overrides[cache.Kind(name)] = time.Duration(seconds) * time.Second
	}
	return overrides
}
