package pipeline

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/quarry/core"
)

// BatchResult is the outcome of one query of a batch.
type BatchResult struct {
	Query    string
	Response *core.PipelineResponse
	Err      error
}

// ProcessBatch runs queries concurrently, at most BatchConcurrency at a time,
// and returns their results in input order. opts apply to every query; each
// query gets its own ID derived from the batch ID or WithQueryID.
func (p *Pipeline) ProcessBatch(ctx context.Context, queries []string, opts ...RequestOption) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	pool, err := ants.NewPool(min(p.config.BatchConcurrency, len(queries)))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	base := newRequest(time.Now(), opts)
	var wg sync.WaitGroup
	for i, q := range queries {
		results[i].Query = q
		queryOpts := append(append([]RequestOption(nil), opts...), WithQueryID(base.queryID+"-"+strconv.Itoa(i)))

		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i].Response, results[i].Err = p.Process(ctx, q, queryOpts...)
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			results[i].Err = err
		}
	}
	wg.Wait()

	p.logger.Debug("batch processed", "queries", len(queries))
	return results, nil
}
