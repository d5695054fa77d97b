package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Searcher issues one planned query against the external search engine.
type Searcher interface {
	Search(ctx context.Context, query SearchQuery) ([]JobResult, error)
}

const (
	DefaultConcurrency  = 4
	DefaultQueryTimeout = 40 * time.Second
)

// Options tune the concurrent query dispatch. Zero values fall back to the
// defaults above.
type Options struct {
	Concurrency  int
	QueryTimeout time.Duration
}

// Pipeline runs one search/rank cycle: plan the queries, fan them out over a
// bounded worker pool, and aggregate the batches into a ranked report.
type Pipeline struct {
	searcher     Searcher
	cfg          *Config
	logger       *zap.Logger
	concurrency  int
	queryTimeout time.Duration
}

func New(searcher Searcher, cfg *Config, logger *zap.Logger, opts Options) (*Pipeline, error) {
	if searcher == nil {
		return nil, fmt.Errorf("%w: searcher is required", ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	return &Pipeline{
		searcher:     searcher,
		cfg:          cfg,
		logger:       logger,
		concurrency:  concurrency,
		queryTimeout: timeout,
	}, nil
}

// Run executes one full cycle for the given skill list. Failed or timed-out
// queries degrade to empty batches, so the returned report is well formed
// even when every query failed.
func (p *Pipeline) Run(ctx context.Context, skills []string) (*Report, error) {
	queries, err := PlanQueries(p.cfg, skills)
	if err != nil {
		return nil, err
	}

	p.logger.Info("planned search queries",
		zap.Int("skills", len(skills)),
		zap.Int("queries", len(queries)),
	)

	batches := p.collect(ctx, queries)

	failed := 0
	for _, batch := range batches {
		if batch.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		p.logger.Warn("continuing with reduced results",
			zap.Int("failed_queries", failed),
			zap.Int("total_queries", len(queries)),
		)
	}

	jobs, err := Aggregate(batches, skills, p.cfg)
	if err != nil {
		return nil, err
	}

	p.logger.Info("aggregation finished",
		zap.Int("ranked", len(jobs)),
		zap.Int("top_n", p.cfg.TopN),
	)

	return &Report{Jobs: jobs}, nil
}

// collect fans the queries out over a fixed pool of workers. Each batch
// lands in a slice slot indexed by plan position, so the merge order is the
// planning order no matter which response arrives first. When the caller
// cancels, queries not yet dispatched stay as empty batches.
func (p *Pipeline) collect(ctx context.Context, queries []SearchQuery) []Batch {
	batches := make([]Batch, len(queries))
	for i := range queries {
		batches[i].Query = queries[i]
	}

	workers := p.concurrency
	if workers > len(queries) {
		workers = len(queries)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				batches[idx] = p.execute(ctx, queries[idx])
			}
		}()
	}

feed:
	for i := range queries {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	return batches
}

func (p *Pipeline) execute(ctx context.Context, query SearchQuery) Batch {
	if err := ctx.Err(); err != nil {
		return Batch{Query: query, Err: err}
	}

	qctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	results, err := p.searcher.Search(qctx, query)
	if err != nil {
		p.logger.Warn("search query failed",
			zap.String("query", query.Text),
			zap.Error(err),
		)
		return Batch{Query: query, Err: err}
	}

	return Batch{Query: query, Results: results}
}
