package ai

import (
	"errors"
	"strings"
)

// Supported provider backends.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds the settings for the AI services.
type Config struct {
	// Provider selects the backend: "openai" for any OpenAI-compatible API
	// or "ollama" for the native Ollama API.
	Provider string `yaml:"provider"`

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string `yaml:"embedding_host"`

	// GenerationHost is the base URL for the completion service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	GenerationHost string `yaml:"generation_host"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string `yaml:"embedding_model"`

	// GenerationModel is the model identifier to use for answer generation.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	GenerationModel string `yaml:"generation_model"`

	// APIKey is sent as the bearer token. Local services accept any value.
	APIKey string `yaml:"api_key"`
}

type ConfigOption func(*Config)

func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		Provider:        ProviderOpenAI,
		EmbeddingHost:   defaultHost,
		GenerationHost:  defaultHost,
		EmbeddingModel:  "embeddinggemma",
		GenerationModel: "qwen2.5:3b",
		APIKey:          "none",
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize adjusts host URLs to the form the selected provider expects.
// OpenAI-compatible hosts end with /v1; Ollama hosts are bare base URLs.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.Provider, c.EmbeddingHost)
	c.GenerationHost = normalizeHost(c.Provider, c.GenerationHost)
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

func normalizeHost(provider, host string) string {
	if host == "" {
		return host
	}
	host = strings.TrimSuffix(host, "/")
	switch provider {
	case ProviderOllama:
		return strings.TrimSuffix(host, "/v1")
	default:
		if !strings.HasSuffix(host, "/v1") {
			host += "/v1"
		}
		return host
	}
}

func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.Provider != ProviderOpenAI && c.Provider != ProviderOllama {
		return errors.New("ai config: Provider must be \"openai\" or \"ollama\"")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.GenerationHost == "" {
		return errors.New("ai config: GenerationHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	return nil
}
