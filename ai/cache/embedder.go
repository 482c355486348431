package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrEmbedderRequired is returned when no embedder is wrapped.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrClientRequired is returned when no Redis client is supplied.
	ErrClientRequired = errors.New("redis client is required")
)

// CachedEmbedder implements ai.Embedder by consulting Redis before the
// wrapped embedder.
type CachedEmbedder struct {
	next   ai.Embedder
	client redis.UniversalClient
	model  string
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ai.Embedder = (*CachedEmbedder)(nil)

type Option func(*CachedEmbedder) error

func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedEmbedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "embedding-cache")
		return nil
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(c *CachedEmbedder) error {
		c.ttl = ttl
		return nil
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(c *CachedEmbedder) error {
		c.prefix = prefix
		return nil
	}
}

// NewCachedEmbedder wraps next. model is part of every key so vectors from
// different models never collide.
func NewCachedEmbedder(next ai.Embedder, client redis.UniversalClient, model string, opts ...Option) (*CachedEmbedder, error) {
	if next == nil {
		return nil, ErrEmbedderRequired
	}
	if client == nil {
		return nil, ErrClientRequired
	}
	defaults := DefaultConfig()
	c := &CachedEmbedder{
		next:   next,
		client: client,
		model:  model,
		prefix: defaults.KeyPrefix,
		ttl:    defaults.TTL,
		logger: slog.Default().With("component", "embedding-cache"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewClient connects to Redis using config and verifies the connection.
func NewClient(ctx context.Context, config Config) (*redis.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (c *CachedEmbedder) key(text string) string {
	return c.prefix + ":" + c.model + ":" + core.DocumentIDFromContent(text)
}

// EmbedText returns the cached vector for text or embeds and caches it.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts serves hits from Redis and embeds only the misses, in one call
// to the wrapped embedder. Output order matches texts.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.key(text)
	}

	out := make([][]float32, len(texts))
	cached, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("cache lookup failed, embedding directly", "count", len(texts), "err", err)
		cached = nil
	}

	var missing []int
	for i := range texts {
		if i < len(cached) {
			if raw, ok := cached[i].(string); ok {
				if vec, ok := decodeVector([]byte(raw)); ok {
					out[i] = vec
					continue
				}
				c.logger.Warn("discarding corrupt cache entry", "key", keys[i])
			}
		}
		missing = append(missing, i)
	}
	c.logger.Debug("embedding cache lookup", "hits", len(texts)-len(missing), "misses", len(missing))
	if len(missing) == 0 {
		return out, nil
	}

	pending := make([]string, len(missing))
	for j, i := range missing {
		pending[j] = texts[i]
	}
	vectors, err := c.next.EmbedTexts(ctx, pending)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(pending) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(pending))
	}

	pipe := c.client.Pipeline()
	for j, i := range missing {
		out[i] = vectors[j]
		pipe.Set(ctx, keys[i], encodeVector(vectors[j]), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to store embeddings in cache", "count", len(missing), "err", err)
	}
	return out, nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, bool) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, true
}
