package pipeline

import (
	"errors"
	"runtime"
	"time"
)

// Config holds orchestration settings.
type Config struct {
	// MaxRetries is the total number of attempts for retrieval and generation.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// BatchConcurrency bounds how many queries ProcessBatch runs at once.
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// DefaultConfig returns the default orchestration settings.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       3,
		RetryDelay:       time.Second,
		BatchConcurrency: max(runtime.NumCPU()/2, 1),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxRetries < 1 {
		return errors.New("max_retries must be at least 1")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry_delay cannot be negative")
	}
	if c.BatchConcurrency < 1 {
		return errors.New("batch_concurrency must be positive")
	}
	return nil
}
