// Package sources fetches raw keyword candidates from independent free
// sources and analyzes a project's own published content.
package sources

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
	"github.com/lueurxax/editorial-planner/internal/platform/worker"
)

// Source names recorded on candidates and metrics.
const (
	SourceSeed       = "seed"
	SourceSuggest    = "google_suggest"
	SourceSERP       = "serp"
	SourceReddit     = "reddit"
	SourceTrends     = "google_trends"
	SourceCompetitor = "competitor"
)

// Candidate is one raw keyword proposal.
type Candidate struct {
	Keyword   string
	Source    string
	SourceURL string

	// Popularity is a 0-100 relative popularity when the source has one.
	Popularity *float64

	// SERP is set only by sources that inspected the result page.
	SERP *domain.SERPFeatures
}

// Query is the input shared by all sources of one research run.
type Query struct {
	Seeds          []string
	CompetitorURLs []string
	Sector         string
	Language       string
}

// Source produces candidates. Implementations must honor ctx.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]Candidate, error)
}

// Result is the settled outcome of one source.
type Result struct {
	Source     string
	Candidates []Candidate
	Err        error
	Duration   time.Duration
}

// Collector runs every source concurrently and waits for all of them.
type Collector struct {
	sources []Source
	timeout time.Duration
	logger  *zerolog.Logger
}

// NewCollector creates a collector. A non-positive timeout leaves sources
// bounded only by the caller's context.
func NewCollector(timeout time.Duration, logger *zerolog.Logger, sources ...Source) *Collector {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Collector{
		sources: sources,
		timeout: timeout,
		logger:  logger,
	}
}

// Collect invokes all sources and returns one result per source in
// registration order. A failing source never cancels the others.
func (c *Collector) Collect(ctx context.Context, q Query) []Result {
	results := make([]Result, len(c.sources))

	var g errgroup.Group

	for i, src := range c.sources {
		g.Go(func() error {
			results[i] = c.run(ctx, src, q)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines record their own errors

	return results
}

func (c *Collector) run(ctx context.Context, src Source, q Query) (res Result) {
	name := src.Name()
	start := time.Now()
	res.Source = name

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Str(logKeySource, name).Msg("source panicked")
			res.Candidates = nil
			res.Err = errSourcePanic
		}

		res.Duration = time.Since(start)
		observability.SourceDuration.WithLabelValues(name).Observe(res.Duration.Seconds())
	}()

	err := worker.RunWithTimeout(ctx, c.timeout, func(ctx context.Context) error {
		candidates, err := src.Fetch(ctx, q)
		res.Candidates = candidates

		return err
	})
	if err != nil {
		observability.SourceFailures.WithLabelValues(name).Inc()
		c.logger.Warn().Err(err).Str(logKeySource, name).Int("partial", len(res.Candidates)).Msg("source failed")
		res.Err = err
	}

	observability.SourceResults.WithLabelValues(name).Add(float64(len(res.Candidates)))

	return res
}

// Flatten returns the candidates of all results in order.
func Flatten(results []Result) []Candidate {
	total := 0
	for _, r := range results {
		total += len(r.Candidates)
	}

	out := make([]Candidate, 0, total)
	for _, r := range results {
		out = append(out, r.Candidates...)
	}

	return out
}
