package premium

import (
	"time"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
)

const (
	providerDataForSEO = "dataforseo"
	providerAhrefs     = "ahrefs"
	providerSEMrush    = "semrush"

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"

	defaultTimeout = 30 * time.Second

	competitionEasyBelow   = 0.3
	competitionMediumBelow = 0.6
	competitionHardBelow   = 0.8

	competitionLowLabel    = 0.2
	competitionMediumLabel = 0.5
	competitionHighLabel   = 0.85

	difficultyEasy     = domain.DifficultyScoreEasy
	difficultyMedium   = domain.DifficultyScoreMedium
	difficultyHard     = domain.DifficultyScoreHard
	difficultyVeryHard = domain.DifficultyScoreVeryHard

	responseTruncateLen = 200

	errFmtProviderKey   = "%w: %s"
	errFmtCreateRequest = "create request: %w"

	logKeyProvider = "provider"
	logKeyBatch    = "batch"
	logKeyKeyword  = "keyword"

	statusSuccess = "success"
	statusError   = "error"
)
