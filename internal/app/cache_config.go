package app

import (
	"strings"
	"time"

	"github.com/cinetheque/api/internal/cache"
)

// RedisClientConfig adapts the loaded settings into a cache.RedisConfig.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: c.Redis.Username,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// ListCacheTTL returns the configured list payload TTL, defaulting when unset.
func (c CacheConfig) ListCacheTTL() time.Duration {
	if c.ListTTL <= 0 {
		return cache.DefaultListTTL
	}
	return c.ListTTL
}
