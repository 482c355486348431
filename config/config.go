// Package config loads quarry settings from YAML.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default:
//
//	ai:
//	  provider: ollama
//	  embedding_host: http://localhost:11434
//	retrieval:
//	  k: 8
//	pipeline:
//	  retry_delay: 500ms
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/ai/cache"
	"github.com/poiesic/quarry/pipeline"
	"github.com/poiesic/quarry/query"
	"github.com/poiesic/quarry/response"
	"github.com/poiesic/quarry/retrieval"
	"github.com/poiesic/quarry/search"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure returned by Load and Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// StoreConfig selects where documents are kept.
type StoreConfig struct {
	// Path is the BadgerDB directory. Created if missing.
	// Default: "quarry.db"
	Path string `yaml:"path"`

	// InMemory ignores Path and keeps documents in memory only.
	InMemory bool `yaml:"in_memory"`
}

// Config is the complete engine configuration.
type Config struct {
	AI        ai.Config             `yaml:"ai"`
	Cache     cache.Config          `yaml:"cache"`
	Store     StoreConfig           `yaml:"store"`
	Validator query.ValidatorConfig `yaml:"validator"`
	Search    search.Config         `yaml:"search"`
	Retrieval retrieval.Config      `yaml:"retrieval"`
	Response  response.Config       `yaml:"response"`
	Pipeline  pipeline.Config       `yaml:"pipeline"`
}

// Default returns a configuration built from every component's defaults.
func Default() *Config {
	return &Config{
		AI:        *ai.DefaultConfig(),
		Cache:     cache.DefaultConfig(),
		Store:     StoreConfig{Path: "quarry.db"},
		Validator: *query.DefaultValidatorConfig(),
		Search:    *search.DefaultConfig(),
		Retrieval: *retrieval.DefaultConfig(),
		Response:  *response.DefaultConfig(),
		Pipeline:  *pipeline.DefaultConfig(),
	}
}

// Load reads the YAML file at path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := decodeStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section. The AI section's hosts are normalized
// in place.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		check   func() error
	}{
		{"ai", c.AI.Validate},
		{"cache", func() error {
			if !c.Cache.Enabled {
				return nil
			}
			return c.Cache.Validate()
		}},
		{"store", func() error {
			if !c.Store.InMemory && c.Store.Path == "" {
				return errors.New("path is required unless in_memory is set")
			}
			return nil
		}},
		{"validator", c.Validator.Validate},
		{"search", c.Search.Validate},
		{"retrieval", c.Retrieval.Validate},
		{"response", c.Response.Validate},
		{"pipeline", c.Pipeline.Validate},
	}
	for _, ch := range checks {
		if err := ch.check(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, ch.section, err)
		}
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
