package warm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/retry"
	"github.com/poiesic/quarry/storage"
)

var (
	ErrSourceRequired   = errors.New("document source is required")
	ErrEmbedderRequired = errors.New("embedder is required")
)

// Config holds batching and retry settings.
type Config struct {
	// BatchSize is the number of documents embedded per request.
	BatchSize int

	// ReportInterval is how often progress is printed, in documents.
	ReportInterval int

	// MaxRetries is the total number of attempts per batch.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.New("batch-size must be greater than 0")
	}
	if c.ReportInterval <= 0 {
		return errors.New("report-interval must be greater than 0")
	}
	if c.MaxRetries <= 0 {
		return errors.New("max-retries must be greater than 0")
	}
	return nil
}

// Result summarizes a Run.
type Result struct {
	Documents int
	Batches   int
	Elapsed   time.Duration
}

// Warmer embeds every searchable document of a source.
type Warmer struct {
	source   storage.DocumentSource
	embedder ai.Embedder
	config   Config
	progress io.Writer
	logger   *slog.Logger
}

// NewWarmer creates a warmer. A nil config uses DefaultConfig; a nil
// progress writer discards progress output.
func NewWarmer(source storage.DocumentSource, embedder ai.Embedder, config *Config, progress io.Writer) (*Warmer, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Warmer{
		source:   source,
		embedder: embedder,
		config:   *config,
		progress: progress,
		logger:   slog.Default().With("component", "warmer"),
	}, nil
}

// Run embeds the documents matching filters in batches of BatchSize.
// It stops at the first batch that still fails after MaxRetries attempts.
func (w *Warmer) Run(ctx context.Context, filters map[string]any) (*Result, error) {
	docs, err := w.source.FetchCandidates(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	result := &Result{}
	if len(docs) == 0 {
		fmt.Fprintf(w.progress, "No documents found (0 documents)\n")
		return result, nil
	}

	fmt.Fprintf(w.progress, "Warming embeddings for %d documents (batch size: %d)\n", len(docs), w.config.BatchSize)
	tracker := NewProgressTracker(w.progress, len(docs), w.config.ReportInterval)
	tracker.Start()

	policy := retry.Policy{
		MaxAttempts: w.config.MaxRetries,
		Delay:       w.config.RetryDelay,
		Exponential: true,
		Logger:      w.logger,
	}
	for batch := range chunk(docs, w.config.BatchSize) {
		if err := w.embedBatch(ctx, policy, batch); err != nil {
			result.Documents = tracker.Current()
			return result, fmt.Errorf("failed to process batch %d: %w", result.Batches+1, err)
		}
		result.Batches++
		tracker.Increment(len(batch))
	}

	tracker.Finish()
	result.Documents = len(docs)
	result.Elapsed = tracker.Elapsed()
	fmt.Fprintf(w.progress, "Warming complete. Embedded %d documents in %v\n", result.Documents, result.Elapsed.Round(time.Millisecond))
	return result, nil
}

func (w *Warmer) embedBatch(ctx context.Context, policy retry.Policy, batch []*core.Document) error {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.Content
	}
	attempts, err := retry.Do(ctx, policy, func(ctx context.Context) error {
		vectors, err := w.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", attempts, err)
	}
	return nil
}

// chunk yields consecutive slices of at most size documents.
func chunk(docs []*core.Document, size int) func(yield func([]*core.Document) bool) {
	return func(yield func([]*core.Document) bool) {
		for i := 0; i < len(docs); i += size {
			if !yield(docs[i:min(i+size, len(docs))]) {
				return
			}
		}
	}
}
