package ollama

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/quarry/ai"
)

// Embedder implements ai.Embedder with the Ollama embed endpoint.
type Embedder struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple texts in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingCount, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
