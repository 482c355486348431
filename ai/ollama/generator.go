package ollama

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
)

const systemPrompt = "You answer questions using only the numbered sources you are given. " +
	"If they are insufficient, say so. Reply in plain prose without citation markers."

// Generator implements ai.Generator with the Ollama generate endpoint.
type Generator struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// Complete answers prompt from sources in a single non-streaming request.
func (g *Generator) Complete(ctx context.Context, prompt string, sources []*core.EnhancedContext, maxTokens int, temperature float64) (*ai.Completion, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  g.model,
		System: systemPrompt,
		Prompt: ai.RenderPrompt(prompt, sources),
		Stream: &stream,
		Options: map[string]any{
			"num_predict": maxTokens,
			"temperature": temperature,
		},
	}

	var text strings.Builder
	completion := &ai.Completion{Model: g.model}
	err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		text.WriteString(resp.Response)
		if resp.Done {
			completion.TokensUsed = resp.EvalCount
			completion.FinishReason = resp.DoneReason
		}
		return nil
	})
	if err != nil {
		g.logger.Error("failed to generate response", "err", err)
		return nil, err
	}

	completion.Text = strings.TrimSpace(text.String())
	g.logger.Debug("received completion", "tokens", completion.TokensUsed, "finish_reason", completion.FinishReason)
	return completion, nil
}
