package pipeline

import (
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Query outcomes used as the status label.
const (
	outcomeSuccess  = "success"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

// Collector exports pipeline metrics to Prometheus.
type Collector struct {
	queriesTotal  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageAttempts *prometheus.CounterVec
	contexts      prometheus.Histogram
	tokens        prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg. A nil reg
// leaves the collectors unregistered.
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of processed queries by outcome",
			},
			[]string{"status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"stage"},
		),
		stageAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_attempts_total",
				Help:      "Total number of stage attempts including retries",
			},
			[]string{"stage"},
		),
		contexts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_contexts",
			Help:      "Number of contexts retrieved per query",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_tokens_total",
			Help:      "Total number of tokens in generated responses",
		}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.queriesTotal, c.stageDuration, c.stageAttempts, c.contexts, c.tokens} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *Collector) observeStage(stage core.Stage, d time.Duration, attempts int) {
	c.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	c.stageAttempts.WithLabelValues(string(stage)).Add(float64(attempts))
}

func (c *Collector) observeQuery(outcome string, m *core.PipelineMetrics) {
	c.queriesTotal.WithLabelValues(outcome).Inc()
	if m == nil || outcome != outcomeSuccess {
		return
	}
	c.contexts.Observe(float64(m.ContextCount))
	c.tokens.Add(float64(m.TokenCount))
}
