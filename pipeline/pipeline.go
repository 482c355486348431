package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/quarry/ai/tokenizer"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/query"
	"github.com/poiesic/quarry/retry"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/poiesic/quarry/pipeline"

// Validator rejects or sanitizes raw queries. *query.Validator satisfies it.
type Validator interface {
	Validate(q, tenant string) (string, *query.ValidationInfo, error)
}

// Retriever finds contexts for a query. *retrieval.ContextRetriever satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, q string, filters map[string]any, k int) ([]*core.EnhancedContext, error)
}

// Assembler produces the answer. *response.Assembler satisfies it.
type Assembler interface {
	Assemble(ctx context.Context, q string, sources []*core.EnhancedContext) (*core.GeneratedResponse, error)
}

// Pipeline orchestrates query processing. It holds no per-query state and is
// safe for concurrent use.
type Pipeline struct {
	validator  Validator
	parser     *query.Parser
	classifier *query.IntentClassifier
	retriever  Retriever
	assembler  Assembler
	config     Config
	counter    tokenizer.Counter
	collector  *Collector
	tracer     trace.Tracer
	stats      statsTracker
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(p *Pipeline) error {
		if config == nil {
			return nil
		}
		if err := config.Validate(); err != nil {
			return err
		}
		p.config = *config
		return nil
	}
}

// WithRegisterer registers the pipeline's Prometheus collectors with reg
// under the "quarry" namespace.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Pipeline) error {
		c, err := NewCollector("quarry", reg)
		if err != nil {
			return err
		}
		p.collector = c
		return nil
	}
}

// WithTokenCounter sets the counter used when a generator does not report
// token usage. Default is tokenizer.Estimator.
func WithTokenCounter(counter tokenizer.Counter) Option {
	return func(p *Pipeline) error {
		if counter != nil {
			p.counter = counter
		}
		return nil
	}
}

// WithTracer sets the tracer for stage spans.
// Default is the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) error {
		if tracer != nil {
			p.tracer = tracer
		}
		return nil
	}
}

// New creates a Pipeline from its collaborators.
func New(validator Validator, retriever Retriever, assembler Assembler, opts ...Option) (*Pipeline, error) {
	if validator == nil {
		return nil, ErrValidatorRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if assembler == nil {
		return nil, ErrAssemblerRequired
	}

	p := &Pipeline{
		validator: validator,
		retriever: retriever,
		assembler: assembler,
		config:    *DefaultConfig(),
		counter:   tokenizer.Estimator{},
		tracer:    otel.Tracer(instrumentationName),
		logger:    slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.collector == nil {
		// Unregistered collectors keep the code path uniform
		c, err := NewCollector("quarry", nil)
		if err != nil {
			return nil, err
		}
		p.collector = c
	}
	p.parser = query.NewParser(query.WithParserLogger(p.logger))
	p.classifier = query.NewIntentClassifier(query.WithIntentLogger(p.logger))
	return p, nil
}

// Config returns a copy of the active configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Stats returns a snapshot of the aggregate counters.
func (p *Pipeline) Stats() Stats {
	return p.stats.snapshot()
}

// Process runs q through every stage.
//
// A query rejected by validation returns (nil, err) with err wrapping
// core.ErrValidation. If retrieval or generation still fails after all
// retries, Process returns a response with Success false and partial metrics
// together with an error wrapping core.ErrRetrieval or core.ErrGeneration.
func (p *Pipeline) Process(ctx context.Context, q string, opts ...RequestOption) (*core.PipelineResponse, error) {
	start := time.Now()
	req := newRequest(start, opts)
	logger := p.logger.With("query_id", req.queryID)

	ctx, span := p.tracer.Start(ctx, "pipeline.process", trace.WithAttributes(
		attribute.String("query.id", req.queryID),
		attribute.String("tenant.id", req.tenant),
	))
	defer span.End()

	metrics := core.NewPipelineMetrics()

	var sanitized string
	err := p.runStage(ctx, core.StageValidate, metrics, false, func(ctx context.Context) error {
		var err error
		sanitized, _, err = p.validator.Validate(q, req.tenant)
		return err
	})
	if err != nil {
		logger.Info("query rejected", "err", err)
		p.finish(span, outcomeRejected, nil, time.Since(start), err)
		return nil, err
	}

	var parsed *core.ParsedQuery
	_ = p.runStage(ctx, core.StageParse, metrics, false, func(ctx context.Context) error {
		parsed = p.parser.Parse(sanitized)
		return nil
	})

	var intent *core.QueryIntent
	_ = p.runStage(ctx, core.StageClassify, metrics, false, func(ctx context.Context) error {
		intent = p.classifier.Classify(parsed)
		return nil
	})

	resp := &core.PipelineResponse{
		QueryID:   req.queryID,
		Query:     q,
		Parsed:    parsed,
		Intent:    intent,
		Contexts:  []*core.EnhancedContext{},
		Metrics:   metrics,
		Timestamp: start.UTC(),
	}

	var contexts []*core.EnhancedContext
	err = p.runStage(ctx, core.StageRetrieve, metrics, true, func(ctx context.Context) error {
		var err error
		contexts, err = p.retriever.Retrieve(ctx, sanitized, req.filters, req.k)
		return err
	})
	if err != nil {
		return p.fail(span, resp, start, stageError(core.ErrRetrieval, err), logger)
	}
	if contexts != nil {
		resp.Contexts = contexts
	}
	metrics.ContextCount = len(resp.Contexts)

	var generated *core.GeneratedResponse
	err = p.runStage(ctx, core.StageGenerate, metrics, true, func(ctx context.Context) error {
		var err error
		generated, err = p.assembler.Assemble(ctx, sanitized, resp.Contexts)
		return err
	})
	if err != nil {
		return p.fail(span, resp, start, stageError(core.ErrGeneration, err), logger)
	}

	resp.Response = generated
	resp.Success = true
	metrics.ConfidenceScore = generated.ConfidenceScore
	metrics.TokenCount = generated.TokensUsed
	if metrics.TokenCount == 0 {
		metrics.TokenCount = p.counter.CountTokens(generated.ResponseText)
	}
	metrics.TotalDuration = time.Since(start)

	logger.Info("query processed",
		"type", parsed.Type,
		"intent", intent.Category,
		"contexts", metrics.ContextCount,
		"confidence", metrics.ConfidenceScore,
		"duration", metrics.TotalDuration)
	p.finish(span, outcomeSuccess, metrics, metrics.TotalDuration, nil)
	return resp, nil
}

// runStage times fn into metrics, retrying it when retryable.
func (p *Pipeline) runStage(ctx context.Context, stage core.Stage, metrics *core.PipelineMetrics, retryable bool, fn func(ctx context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+string(stage))
	defer span.End()

	start := time.Now()
	attempts := 1
	var err error
	if retryable {
		attempts, err = retry.Do(ctx, retry.Policy{
			MaxAttempts: p.config.MaxRetries,
			Delay:       p.config.RetryDelay,
			Logger:      p.logger.With("stage", stage),
		}, fn)
	} else {
		err = fn(ctx)
	}
	elapsed := time.Since(start)

	metrics.StageDurations[stage] = elapsed
	metrics.StageAttempts[stage] = attempts
	p.collector.observeStage(stage, elapsed, attempts)

	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Pipeline) fail(span trace.Span, resp *core.PipelineResponse, start time.Time, err error, logger *slog.Logger) (*core.PipelineResponse, error) {
	resp.Success = false
	resp.Error = err.Error()
	resp.Metrics.TotalDuration = time.Since(start)
	logger.Error("query failed", "err", err, "duration", resp.Metrics.TotalDuration)
	p.finish(span, outcomeFailed, resp.Metrics, resp.Metrics.TotalDuration, err)
	return resp, err
}

func (p *Pipeline) finish(span trace.Span, outcome string, metrics *core.PipelineMetrics, latency time.Duration, err error) {
	p.stats.record(outcome, latency)
	p.collector.observeQuery(outcome, metrics)
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// stageError makes sure err carries the stage's error class. retry.Do
// returns a bare context error when cancelled between attempts.
func stageError(class, err error) error {
	if errors.Is(err, class) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}
