package cache

import (
	"errors"
	"time"
)

// Config holds the Redis connection and expiry settings.
type Config struct {
	// Enabled turns the cache on. When false the embedder is used directly.
	Enabled bool `yaml:"enabled"`

	// Addr is the Redis host:port.
	// Default: "localhost:6379"
	Addr string `yaml:"addr"`

	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// TTL is how long a cached vector lives. Zero keeps vectors forever.
	// Default: 24h
	TTL time.Duration `yaml:"ttl"`

	// KeyPrefix namespaces the cache keys.
	// Default: "quarry:emb"
	KeyPrefix string `yaml:"key_prefix"`
}

func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		TTL:       24 * time.Hour,
		KeyPrefix: "quarry:emb",
	}
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("cache config: Addr is required")
	}
	if c.TTL < 0 {
		return errors.New("cache config: TTL cannot be negative")
	}
	if c.KeyPrefix == "" {
		return errors.New("cache config: KeyPrefix is required")
	}
	return nil
}
