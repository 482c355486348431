package ollama

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/quarry/ai"
)

// ErrEmbeddingCount is returned when Ollama returns a different number of
// vectors than texts sent.
var ErrEmbeddingCount = errors.New("embedding count mismatch")

// Provider implements ai.AIProvider on top of an Ollama server.
type Provider struct {
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// NewProvider creates a provider from config. Hosts are bare base URLs such
// as http://localhost:11434; a trailing /v1 is removed.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	return newProvider(config, http.DefaultClient)
}

func newProvider(config *ai.Config, httpClient *http.Client) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedClient, err := newClient(config.EmbeddingHost, httpClient)
	if err != nil {
		return nil, err
	}
	genClient, err := newClient(config.GenerationHost, httpClient)
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder: &Embedder{
			client: embedClient,
			model:  config.EmbeddingModel,
			logger: slog.Default().With("component", "ollama-embedder"),
		},
		generator: &Generator{
			client: genClient,
			model:  config.GenerationModel,
			logger: slog.Default().With("component", "ollama-generator"),
		},
		logger: slog.Default().With("component", "ollama-provider"),
	}, nil
}

func newClient(host string, httpClient *http.Client) (*api.Client, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	return api.NewClient(base, httpClient), nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the answer generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the HTTP client needs no cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
