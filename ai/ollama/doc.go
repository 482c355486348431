// Package ollama provides AI service implementations using the native Ollama API.
//
// It talks to /api/embed and /api/generate directly instead of the
// OpenAI-compatible endpoints, which exposes Ollama's evaluation counts and
// sampling options:
//
//	config := ai.NewConfig(
//	    ai.WithProvider(ai.ProviderOllama),
//	    ai.WithHost("http://localhost:11434"),
//	)
//	provider, err := ollama.NewProvider(config)
package ollama
