// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used by Quarry.
//
// This package defines interfaces for text embeddings and grounded answer
// generation. It follows the dependency inversion principle, allowing the
// retrieval pipeline to depend on abstractions rather than concrete
// implementations.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces answer text grounded in retrieved sources
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs via langchaingo
//   - ai/ollama: the native Ollama API
//   - ai/cache: a Redis-backed embedding cache wrapping any Embedder
//   - ai/tokenizer: token counting for usage metrics
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, ollama.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockGenerator)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, Reset, etc.).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	completion, err := provider.Generator().Complete(ctx, "What is Go?", sources, 512, 0.2)
package ai
