package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Provider:        ProviderOpenAI,
		EmbeddingHost:   "http://localhost:11434/v1",
		GenerationHost:  "http://localhost:11434/v1",
		EmbeddingModel:  "embeddinggemma",
		GenerationModel: "qwen2.5:3b",
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.GenerationHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.GenerationModel)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.GenerationHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.GenerationHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithGenerationHost("http://generate:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://generate:9090/v1", cfg.GenerationHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderOllama),
			WithEmbeddingModel("custom-embed"),
			WithGenerationModel("custom-generate"),
			WithAPIKey("secret"),
		)

		assert.Equal(t, ProviderOllama, cfg.Provider)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-generate", cfg.GenerationModel)
		assert.Equal(t, "secret", cfg.APIKey)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		host     string
		expected string
	}{
		{"openai already has /v1", ProviderOpenAI, "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"openai missing /v1", ProviderOpenAI, "http://localhost:11434", "http://localhost:11434/v1"},
		{"openai trailing slash", ProviderOpenAI, "http://localhost:11434/", "http://localhost:11434/v1"},
		{"ollama strips /v1", ProviderOllama, "http://localhost:11434/v1", "http://localhost:11434"},
		{"ollama bare host", ProviderOllama, "http://localhost:11434/", "http://localhost:11434"},
		{"empty host", ProviderOpenAI, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Provider:       tt.provider,
				EmbeddingHost:  tt.host,
				GenerationHost: tt.host,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.GenerationHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validConfig()
		cfg.EmbeddingHost = "http://localhost:11434"

		require.NoError(t, cfg.Validate())
		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "bedrock" }, "Provider"},
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing generation host", func(c *Config) { c.GenerationHost = "" }, "GenerationHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing generation model", func(c *Config) { c.GenerationModel = "" }, "GenerationModel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfigValidate_Integration(t *testing.T) {
	// Test that NewConfig produces a valid configuration
	cfg := NewConfig()
	err := cfg.Validate()
	require.NoError(t, err)

	// Test that DefaultConfig produces a valid configuration
	cfg = DefaultConfig()
	err = cfg.Validate()
	require.NoError(t, err)
}
