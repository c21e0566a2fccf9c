// Package research runs the keyword research pipeline: source collection,
// aggregation, premium enrichment, classification, clustering and
// selection, and manages research runs around it.
package research

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/process/research/premium"
	"github.com/lueurxax/editorial-planner/internal/process/research/sources"
)

// SourceCollector fans a query out to the free sources.
type SourceCollector interface {
	Collect(ctx context.Context, q sources.Query) []sources.Result
}

// ContentAnalyzer reports what a site already covers.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, siteURL string) (*sources.OwnContent, error)
}

// PremiumEnricher looks keywords up with a metered provider.
type PremiumEnricher interface {
	ProviderName() string
	Enrich(ctx context.Context, keywords []string, language string) (map[string]premium.Metrics, error)
}

// Outcome is the result of one pipeline execution. Keywords carry their
// cluster membership through Clusters.
type Outcome struct {
	Keywords          []*domain.Keyword
	Clusters          []*domain.Cluster
	UsedPremium       bool
	PremiumProvider   string
	FallbackSelection bool
	SourceFailures    int
}

// Pipeline wires the research stages together.
type Pipeline struct {
	collector  SourceCollector
	analyzer   ContentAnalyzer
	enricher   PremiumEnricher
	classifier *Classifier
	clusterer  *Clusterer
	selector   *Selector
	logger     *zerolog.Logger
}

// PipelineDeps are the stage implementations. Analyzer and Enricher may be nil.
type PipelineDeps struct {
	Collector  SourceCollector
	Analyzer   ContentAnalyzer
	Enricher   PremiumEnricher
	Classifier *Classifier
	Clusterer  *Clusterer
	Selector   *Selector
}

// NewPipeline builds a Pipeline. A nil Enricher skips premium enrichment.
func NewPipeline(deps PipelineDeps, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{
		collector:  deps.Collector,
		analyzer:   deps.Analyzer,
		enricher:   deps.Enricher,
		classifier: deps.Classifier,
		clusterer:  deps.Clusterer,
		selector:   deps.Selector,
		logger:     logger,
	}
}

// Run executes every stage for the project. Source, own-content, premium
// and selection failures degrade the result; only a failed classification
// or clustering call aborts the run.
func (p *Pipeline) Run(ctx context.Context, project *domain.Project, runID string) (*Outcome, error) {
	logger := p.logger.With().Str(logKeyRunID, runID).Logger()

	q := sources.Query{
		Seeds:          project.KeywordSeeds,
		CompetitorURLs: project.CompetitorURLs,
		Sector:         InferSector(project.Description, project.Objectives),
		Language:       project.Language,
	}

	var (
		results []sources.Result
		own     *sources.OwnContent
		g       errgroup.Group
	)

	g.Go(func() error {
		results = p.collector.Collect(ctx, q)
		return nil
	})

	g.Go(func() error {
		own = p.analyzeOwnContent(ctx, project, &logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcome := &Outcome{}

	for _, r := range results {
		if r.Err != nil {
			outcome.SourceFailures++
		}
	}

	outcome.Keywords = Aggregate(runID, project.KeywordSeeds, sources.Flatten(results))
	logger.Info().Int(logKeyCount, len(outcome.Keywords)).Int("source_failures", outcome.SourceFailures).Msg("keywords aggregated")

	p.enrich(ctx, project, outcome, &logger)

	if err := p.classifier.Classify(ctx, project, outcome.Keywords, own); err != nil {
		return nil, err
	}

	clusters, err := p.clusterer.Cluster(ctx, project, runID, outcome.Keywords)
	if err != nil {
		return nil, err
	}

	outcome.Clusters = clusters
	outcome.FallbackSelection = p.selector.Select(ctx, project, clusters)

	return outcome, nil
}

func (p *Pipeline) analyzeOwnContent(ctx context.Context, project *domain.Project, logger *zerolog.Logger) *sources.OwnContent {
	if p.analyzer == nil || project.BlogURL == "" {
		return nil
	}

	own, err := p.analyzer.Analyze(ctx, project.BlogURL)
	if err != nil {
		logger.Warn().Err(err).Str("blog_url", project.BlogURL).Msg("own content analysis failed")
		return nil
	}

	return own
}

// enrich adds premium metrics. Any failure leaves the free-tier data as is.
func (p *Pipeline) enrich(ctx context.Context, project *domain.Project, outcome *Outcome, logger *zerolog.Logger) {
	if p.enricher == nil || p.enricher.ProviderName() == "" || len(outcome.Keywords) == 0 {
		return
	}

	provider := p.enricher.ProviderName()

	metrics, err := p.enricher.Enrich(ctx, keywordTexts(outcome.Keywords), project.Language)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("premium enrichment failed, keeping free data")
	}

	if applied := ApplyPremium(outcome.Keywords, metrics); applied > 0 {
		outcome.UsedPremium = true
		outcome.PremiumProvider = provider
		logger.Info().Str("provider", provider).Int(logKeyCount, applied).Msg("keywords enriched with premium data")
	}
}
