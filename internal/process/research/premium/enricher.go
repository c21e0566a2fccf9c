package premium

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
	"github.com/lueurxax/editorial-planner/internal/platform/worker"
)

const defaultBatchSize = 50

// Enricher looks keywords up in fixed-size batches with a pause between
// batches. Credentials are validated once before the first lookup.
type Enricher struct {
	provider  Provider
	batchSize int
	delay     time.Duration
	logger    *zerolog.Logger

	mu        sync.Mutex
	validated bool
}

// NewEnricher builds an Enricher around provider.
func NewEnricher(provider Provider, cfg config.PremiumConfig, logger *zerolog.Logger) *Enricher {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Enricher{
		provider:  provider,
		batchSize: batchSize,
		delay:     cfg.BatchDelay,
		logger:    logger,
	}
}

// ProviderName returns the configured provider or "" when disabled.
func (e *Enricher) ProviderName() string {
	if e == nil || e.provider == nil {
		return ""
	}

	return e.provider.Name()
}

// Enrich returns the premium metrics found, keyed by normalized keyword.
// A failing batch is skipped; an error is returned when credentials are
// rejected or every batch failed.
func (e *Enricher) Enrich(ctx context.Context, keywords []string, language string) (map[string]Metrics, error) {
	if e == nil || e.provider == nil {
		return nil, coreerrors.ErrProviderNotConfigured
	}

	if err := e.ensureValidated(ctx); err != nil {
		return nil, err
	}

	name := e.provider.Name()
	size := min(e.batchSize, e.provider.MaxBatch())
	out := make(map[string]Metrics, len(keywords))

	var (
		batches int
		errs    []error
	)

	for batch := range slices.Chunk(keywords, size) {
		if batches > 0 {
			if err := worker.Wait(ctx, e.delay); err != nil {
				return out, err
			}
		}

		batches++

		metrics, err := e.provider.Lookup(ctx, batch, language)
		if err != nil {
			observability.PremiumBatches.WithLabelValues(name, statusError).Inc()
			e.logger.Warn().Err(err).Str(logKeyProvider, name).Int(logKeyBatch, batches).Msg("premium batch failed")
			errs = append(errs, err)

			continue
		}

		observability.PremiumBatches.WithLabelValues(name, statusSuccess).Inc()

		for _, m := range metrics {
			key := domain.NormalizeKeyword(m.Keyword)
			if key == "" {
				continue
			}

			out[key] = m
		}

		observability.PremiumKeywordsEnriched.WithLabelValues(name).Add(float64(len(metrics)))
	}

	if batches > 0 && len(errs) == batches {
		return nil, fmt.Errorf("all %d %s batches failed: %w", batches, name, errors.Join(errs...))
	}

	return out, nil
}

func (e *Enricher) ensureValidated(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.validated {
		return nil
	}

	if err := e.provider.Validate(ctx); err != nil {
		return fmt.Errorf("validate %s credentials: %w", e.provider.Name(), err)
	}

	e.validated = true

	return nil
}
