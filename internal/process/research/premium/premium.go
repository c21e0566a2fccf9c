// Package premium enriches keywords with metered keyword-data providers.
package premium

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

// Metrics are the premium figures a provider returned for one keyword.
// Nil fields were not reported.
type Metrics struct {
	Keyword         string
	Volume          *int
	Difficulty      *int
	CPC             *float64
	Competition     *float64
	FeaturedSnippet bool
	PeopleAlsoAsk   bool
}

// Provider is one metered keyword-data API.
type Provider interface {
	Name() string

	// MaxBatch is the largest keyword list one Lookup accepts.
	MaxBatch() int

	// Validate confirms the credentials. It returns ErrInvalidCredentials
	// when the provider rejects them.
	Validate(ctx context.Context) error

	Lookup(ctx context.Context, keywords []string, language string) ([]Metrics, error)
}

// NewProvider builds the provider selected by cfg. It returns nil when no
// premium provider is selected.
func NewProvider(cfg config.PremiumConfig, logger *zerolog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", config.PremiumNone:
		return nil, nil //nolint:nilnil // nil provider means premium enrichment is disabled
	case config.PremiumDataForSEO:
		if cfg.DataForSEOAPIKey == "" {
			return nil, fmt.Errorf(errFmtProviderKey, coreerrors.ErrProviderNotConfigured, cfg.Provider)
		}

		return NewDataForSEO(cfg), nil
	case config.PremiumAhrefs:
		if cfg.AhrefsAPIKey == "" {
			return nil, fmt.Errorf(errFmtProviderKey, coreerrors.ErrProviderNotConfigured, cfg.Provider)
		}

		return NewAhrefs(cfg), nil
	case config.PremiumSEMrush:
		if cfg.SEMrushAPIKey == "" {
			return nil, fmt.Errorf(errFmtProviderKey, coreerrors.ErrProviderNotConfigured, cfg.Provider)
		}

		return NewSEMrush(cfg, logger), nil
	default:
		return nil, coreerrors.Newf(coreerrors.CodeInvalidInput, "unknown premium provider: %s", cfg.Provider)
	}
}

// difficultyFromCompetition buckets a 0-1 competition index onto the
// numeric difficulty scale. Zero or missing competition yields nil.
func difficultyFromCompetition(competition *float64) *int {
	if competition == nil || *competition == 0 {
		return nil
	}

	var d int

	switch c := *competition; {
	case c < competitionEasyBelow:
		d = difficultyEasy
	case c < competitionMediumBelow:
		d = difficultyMedium
	case c < competitionHardBelow:
		d = difficultyHard
	default:
		d = difficultyVeryHard
	}

	return &d
}

// nonZeroFloat returns nil for zero so "0" reads as not reported.
func nonZeroFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}

	return &v
}

func nonZeroInt(v int) *int {
	if v == 0 {
		return nil
	}

	return &v
}

func intPtr(v int) *int {
	return &v
}
