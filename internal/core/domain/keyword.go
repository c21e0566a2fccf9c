package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// SearchIntent is the search intent category of a keyword.
type SearchIntent string

// Search intent values.
const (
	IntentInformational SearchIntent = "INFORMATIONAL"
	IntentNavigational  SearchIntent = "NAVIGATIONAL"
	IntentTransactional SearchIntent = "TRANSACTIONAL"
	IntentCommercial    SearchIntent = "COMMERCIAL"
)

// Valid reports whether the intent is one of the known values.
func (i SearchIntent) Valid() bool {
	switch i {
	case IntentInformational, IntentNavigational, IntentTransactional, IntentCommercial:
		return true
	}

	return false
}

// FunnelStage is the buyer-journey stage a keyword belongs to.
type FunnelStage string

// Funnel stage values.
const (
	FunnelToF FunnelStage = "ToF"
	FunnelMoF FunnelStage = "MoF"
	FunnelBoF FunnelStage = "BoF"
)

// Valid reports whether the stage is one of the known values.
func (f FunnelStage) Valid() bool {
	switch f {
	case FunnelToF, FunnelMoF, FunnelBoF:
		return true
	}

	return false
}

// Difficulty is the free-tier categorical difficulty estimate.
type Difficulty string

// Difficulty values.
const (
	DifficultyEasy     Difficulty = "EASY"
	DifficultyMedium   Difficulty = "MEDIUM"
	DifficultyHard     Difficulty = "HARD"
	DifficultyVeryHard Difficulty = "VERY_HARD"
)

// Numeric difficulty used when a categorical value has to be scored.
const (
	DifficultyScoreEasy     = 25
	DifficultyScoreMedium   = 50
	DifficultyScoreHard     = 75
	DifficultyScoreVeryHard = 90
	DifficultyScoreUnknown  = 50
)

// Score maps the categorical difficulty to its fixed numeric value.
func (d Difficulty) Score() int {
	switch d {
	case DifficultyEasy:
		return DifficultyScoreEasy
	case DifficultyMedium:
		return DifficultyScoreMedium
	case DifficultyHard:
		return DifficultyScoreHard
	case DifficultyVeryHard:
		return DifficultyScoreVeryHard
	}

	return DifficultyScoreUnknown
}

// SERPFeatures holds the presence flags of special result elements.
type SERPFeatures struct {
	FeaturedSnippet bool `json:"featuredSnippet"`
	PeopleAlsoAsk   bool `json:"peopleAlsoAsk"`
	VideoCarousel   bool `json:"videoCarousel"`
	ImagePack       bool `json:"imagePack"`
	LocalPack       bool `json:"localPack"`
}

// Merge ORs the flags of other into f.
func (f SERPFeatures) Merge(other SERPFeatures) SERPFeatures {
	return SERPFeatures{
		FeaturedSnippet: f.FeaturedSnippet || other.FeaturedSnippet,
		PeopleAlsoAsk:   f.PeopleAlsoAsk || other.PeopleAlsoAsk,
		VideoCarousel:   f.VideoCarousel || other.VideoCarousel,
		ImagePack:       f.ImagePack || other.ImagePack,
		LocalPack:       f.LocalPack || other.LocalPack,
	}
}

// Keyword is a candidate search phrase within one research run.
// Text is normalized and unique per run.
type Keyword struct {
	ID        string
	RunID     string
	ClusterID string

	Text string

	FreeVolume     string
	FreeDifficulty Difficulty

	PremiumVolume      *int
	PremiumDifficulty  *int
	PremiumCPC         *float64
	PremiumCompetition *float64

	SERP SERPFeatures

	Intent SearchIntent
	Funnel FunnelStage

	Overlap    bool
	OverlapURL string

	Selection          Selection
	SelectionRationale string

	Source    string
	SourceURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DifficultyScore returns the premium difficulty when present, otherwise the
// numeric mapping of the free-tier category.
func (k *Keyword) DifficultyScore() int {
	if k.PremiumDifficulty != nil {
		return *k.PremiumDifficulty
	}

	return k.FreeDifficulty.Score()
}

// Volume returns the premium volume or 0.
func (k *Keyword) Volume() int {
	if k.PremiumVolume == nil {
		return 0
	}

	return *k.PremiumVolume
}

// HasPremiumData reports whether any premium metric is populated.
func (k *Keyword) HasPremiumData() bool {
	return k.PremiumVolume != nil || k.PremiumDifficulty != nil || k.PremiumCPC != nil || k.PremiumCompetition != nil
}

// NormalizeKeyword case-folds the text, trims it and collapses inner whitespace.
func NormalizeKeyword(s string) string {
	folded := cases.Fold().String(s)

	return strings.Join(strings.Fields(folded), " ")
}

// Free difficulty heuristic weights.
const (
	freeDifficultyFeaturedSnippet = 30
	freeDifficultyPAA             = 10
	freeDifficultyVideo           = 5
	freeDifficultyLocal           = 15
	freeDifficultyShortTail       = 20
	freeDifficultyTwoWords        = 10
	freeDifficultyLongTail        = -10
	freeDifficultyMax             = 100
	freeDifficultyEasyBelow       = 25
	freeDifficultyMediumBelow     = 50
	freeDifficultyHardBelow       = 75
)

// EstimateDifficultyFree derives a categorical difficulty from SERP flags and
// the number of words in the keyword. Unknown SERP data is passed as zero flags.
func EstimateDifficultyFree(keyword string, serp SERPFeatures) Difficulty {
	score := 0

	if serp.FeaturedSnippet {
		score += freeDifficultyFeaturedSnippet
	}

	if serp.PeopleAlsoAsk {
		score += freeDifficultyPAA
	}

	if serp.VideoCarousel {
		score += freeDifficultyVideo
	}

	if serp.LocalPack {
		score += freeDifficultyLocal
	}

	switch len(strings.Fields(keyword)) {
	case 0, 1:
		score += freeDifficultyShortTail
	case 2:
		score += freeDifficultyTwoWords
	default:
		score += freeDifficultyLongTail
	}

	score = max(0, min(freeDifficultyMax, score))

	switch {
	case score < freeDifficultyEasyBelow:
		return DifficultyEasy
	case score < freeDifficultyMediumBelow:
		return DifficultyMedium
	case score < freeDifficultyHardBelow:
		return DifficultyHard
	default:
		return DifficultyVeryHard
	}
}

// Free volume ranges.
const (
	VolumeRange0To100   = "0-100"
	VolumeRange100To500 = "100-500"
	VolumeRange500To1K  = "500-1K"
	VolumeRange1KTo10K  = "1K-10K"
	VolumeRangeAbove10K = "10K+"
	popularityTier100   = 10
	popularityTier500   = 25
	popularityTier1K    = 50
	popularityTier10K   = 75
)

// EstimateVolumeFree maps a 0-100 relative popularity to a volume range.
func EstimateVolumeFree(relativePopularity *float64) string {
	if relativePopularity == nil || *relativePopularity <= 0 {
		return VolumeRange0To100
	}

	p := *relativePopularity

	switch {
	case p < popularityTier100:
		return VolumeRange0To100
	case p < popularityTier500:
		return VolumeRange100To500
	case p < popularityTier1K:
		return VolumeRange500To1K
	case p < popularityTier10K:
		return VolumeRange1KTo10K
	default:
		return VolumeRangeAbove10K
	}
}
