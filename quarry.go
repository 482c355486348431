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

// Package quarry wires the document store, AI provider and query pipeline
// into a single Engine.
//
//	cfg, err := config.Load("quarry.yaml")
//	engine, err := quarry.NewEngine(cfg)
//	defer engine.Close()
//	resp, err := engine.Ask(ctx, "How does BM25 weigh rare terms?")
package quarry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/ai/cache"
	"github.com/poiesic/quarry/ai/ollama"
	"github.com/poiesic/quarry/ai/openai"
	"github.com/poiesic/quarry/ai/tokenizer"
	"github.com/poiesic/quarry/config"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/pipeline"
	"github.com/poiesic/quarry/query"
	"github.com/poiesic/quarry/response"
	"github.com/poiesic/quarry/retrieval"
	"github.com/poiesic/quarry/search"
	"github.com/poiesic/quarry/storage"
	"github.com/poiesic/quarry/storage/badger"
	"github.com/poiesic/quarry/warm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const cacheConnectTimeout = 5 * time.Second

// ErrUnknownProvider is returned for an ai.provider other than openai or ollama.
var ErrUnknownProvider = errors.New("unknown AI provider")

// Engine owns every component needed to store documents and answer queries.
type Engine struct {
	backend   *badger.Backend
	repo      storage.DocumentRepository
	provider  ai.AIProvider
	embedder  ai.Embedder
	redis     redis.UniversalClient
	ownRedis  bool
	retriever *retrieval.ContextRetriever
	pipeline  *pipeline.Pipeline
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider   ai.AIProvider
	redis      redis.UniversalClient
	registerer prometheus.Registerer
	counter    tokenizer.Counter
	logger     *slog.Logger
}

// WithProvider uses provider instead of building one from the ai section.
// The Engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) { o.provider = provider }
}

// WithRedisClient caches embeddings through client, regardless of
// cache.enabled. The caller keeps ownership of client.
func WithRedisClient(client redis.UniversalClient) EngineOption {
	return func(o *engineOptions) { o.redis = client }
}

// WithRegisterer registers pipeline metrics with reg.
func WithRegisterer(reg prometheus.Registerer) EngineOption {
	return func(o *engineOptions) { o.registerer = reg }
}

// WithTokenCounter overrides the tiktoken counter used for token metrics.
func WithTokenCounter(counter tokenizer.Counter) EngineOption {
	return func(o *engineOptions) { o.counter = counter }
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) { o.logger = logger }
}

// NewEngine opens the store and builds the pipeline described by cfg.
// A nil cfg uses config.Default.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{logger: options.logger.With("component", "engine")}
	if err := e.init(cfg, options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(cfg *config.Config, options *engineOptions) error {
	backend, err := badger.OpenBackend(cfg.Store.Path, cfg.Store.InMemory)
	if err != nil {
		return err
	}
	e.backend = backend

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return err
	}
	e.repo = repo

	e.provider = options.provider
	if e.provider == nil {
		if e.provider, err = NewProvider(&cfg.AI); err != nil {
			return err
		}
	}

	embedder := e.provider.Embedder()
	e.redis = options.redis
	if e.redis == nil && cfg.Cache.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), cacheConnectTimeout)
		defer cancel()
		client, err := cache.NewClient(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		e.redis, e.ownRedis = client, true
	}
	if e.redis != nil {
		cached, err := cache.NewCachedEmbedder(embedder, e.redis, cfg.AI.EmbeddingModel,
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithKeyPrefix(cfg.Cache.KeyPrefix),
			cache.WithLogger(options.logger),
		)
		if err != nil {
			return err
		}
		embedder = cached
	}
	e.embedder = embedder

	validator, err := query.NewValidator(&cfg.Validator, query.WithValidatorLogger(options.logger))
	if err != nil {
		return err
	}
	searcher, err := search.NewHybridSearcher(embedder, search.WithConfig(&cfg.Search), search.WithLogger(options.logger))
	if err != nil {
		return err
	}
	e.retriever, err = retrieval.NewContextRetriever(e.repo, searcher,
		retrieval.WithConfig(&cfg.Retrieval),
		retrieval.WithLogger(options.logger),
	)
	if err != nil {
		return err
	}
	counter := options.counter
	if counter == nil {
		counter = tokenizer.NewTiktoken(cfg.AI.GenerationModel)
	}
	assembler, err := response.NewAssembler(e.provider.Generator(),
		response.WithConfig(&cfg.Response),
		response.WithTokenCounter(counter),
		response.WithLogger(options.logger),
	)
	if err != nil {
		return err
	}

	e.pipeline, err = pipeline.New(validator, e.retriever, assembler,
		pipeline.WithConfig(&cfg.Pipeline),
		pipeline.WithRegisterer(options.registerer),
		pipeline.WithTokenCounter(counter),
		pipeline.WithLogger(options.logger),
	)
	if err != nil {
		return err
	}

	e.logger.Info("engine ready",
		"provider", cfg.AI.Provider,
		"in_memory", cfg.Store.InMemory,
		"cache", e.redis != nil,
	)
	return nil
}

// NewProvider builds the AI provider named by config.Provider.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	switch config.Provider {
	case ai.ProviderOpenAI:
		return openai.NewProvider(config)
	case ai.ProviderOllama:
		return ollama.NewProvider(config)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, config.Provider)
	}
}

// Close releases the pipeline workers, provider, cache client and store.
// Errors are logged; the first one is returned.
func (e *Engine) Close() error {
	var errs []error
	if e.retriever != nil {
		e.retriever.Release()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.redis != nil && e.ownRedis {
		if err := e.redis.Close(); err != nil {
			e.logger.Error("error closing cache client", "err", err)
			errs = append(errs, err)
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Repository returns the document store.
func (e *Engine) Repository() storage.DocumentRepository {
	return e.repo
}

// Pipeline returns the query pipeline.
func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

// AddDocuments stores docs and returns them with IDs assigned.
func (e *Engine) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	return e.repo.AddDocuments(ctx, docs...)
}

// Ask runs q through the pipeline.
func (e *Engine) Ask(ctx context.Context, q string, opts ...pipeline.RequestOption) (*core.PipelineResponse, error) {
	return e.pipeline.Process(ctx, q, opts...)
}

// AskBatch runs queries concurrently and returns results in input order.
func (e *Engine) AskBatch(ctx context.Context, queries []string, opts ...pipeline.RequestOption) ([]pipeline.BatchResult, error) {
	return e.pipeline.ProcessBatch(ctx, queries, opts...)
}

// Warm embeds the stored documents matching filters through the engine's
// embedder, which fills the embedding cache when one is configured.
func (e *Engine) Warm(ctx context.Context, config *warm.Config, progress io.Writer, filters map[string]any) (*warm.Result, error) {
	if e.redis == nil {
		e.logger.Warn("no embedding cache configured; warming only checks the embedder")
	}
	warmer, err := warm.NewWarmer(e.repo, e.embedder, config, progress)
	if err != nil {
		return nil, err
	}
	return warmer.Run(ctx, filters)
}

// Stats returns the aggregate pipeline counters.
func (e *Engine) Stats() pipeline.Stats {
	return e.pipeline.Stats()
}
