package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	model  string
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		model:  config.GenerationModel,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Complete answers prompt from sources.
func (g *Generator) Complete(ctx context.Context, prompt string, sources []*core.EnhancedContext, maxTokens int, temperature float64) (*ai.Completion, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, ai.RenderPrompt(prompt, sources)),
	}

	g.logger.Debug("requesting completion", "sources", len(sources), "max_tokens", maxTokens)
	response, err := g.client.GenerateContent(ctx, content,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		return nil, ErrNoChoices
	}
	choice := response.Choices[0]

	completion := &ai.Completion{
		Text:         cleanCompletion(choice.Content),
		TokensUsed:   completionTokens(choice.GenerationInfo),
		FinishReason: choice.StopReason,
		Model:        g.model,
	}
	g.logger.Debug("received completion",
		"tokens", completion.TokensUsed,
		"finish_reason", completion.FinishReason)
	return completion, nil
}

// completionTokens reads the completion token count reported by the service.
func completionTokens(info map[string]any) int {
	switch v := info["CompletionTokens"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
