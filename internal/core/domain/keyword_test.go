package domain

import "testing"

func TestNormalizeKeyword(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim and fold", input: "  Cloud Backup ", want: "cloud backup"},
		{name: "collapse spaces", input: "cloud \t  backup\npricing", want: "cloud backup pricing"},
		{name: "empty", input: "   ", want: ""},
		{name: "already normalized", input: "seo tools", want: "seo tools"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeKeyword(tt.input); got != tt.want {
				t.Errorf("NormalizeKeyword(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDifficultyScore(t *testing.T) {
	premium := 12

	tests := []struct {
		name string
		kw   Keyword
		want int
	}{
		{name: "easy", kw: Keyword{FreeDifficulty: DifficultyEasy}, want: 25},
		{name: "medium", kw: Keyword{FreeDifficulty: DifficultyMedium}, want: 50},
		{name: "hard without premium", kw: Keyword{FreeDifficulty: DifficultyHard}, want: 75},
		{name: "very hard", kw: Keyword{FreeDifficulty: DifficultyVeryHard}, want: 90},
		{name: "unknown", kw: Keyword{}, want: 50},
		{name: "premium wins", kw: Keyword{FreeDifficulty: DifficultyHard, PremiumDifficulty: &premium}, want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kw.DifficultyScore(); got != tt.want {
				t.Errorf("DifficultyScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateDifficultyFree(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		serp    SERPFeatures
		want    Difficulty
	}{
		{name: "long tail no features", keyword: "cloud backup for business", want: DifficultyEasy},
		{name: "two words no features", keyword: "cloud backup", want: DifficultyEasy},
		{name: "single word", keyword: "backup", want: DifficultyEasy},
		{name: "single word with snippet", keyword: "backup", serp: SERPFeatures{FeaturedSnippet: true}, want: DifficultyHard},
		{name: "two words with snippet and paa", keyword: "cloud backup", serp: SERPFeatures{FeaturedSnippet: true, PeopleAlsoAsk: true}, want: DifficultyHard},
		{
			name:    "everything",
			keyword: "backup",
			serp:    SERPFeatures{FeaturedSnippet: true, PeopleAlsoAsk: true, VideoCarousel: true, LocalPack: true},
			want:    DifficultyVeryHard,
		},
		{name: "long tail with snippet", keyword: "best cloud backup pricing", serp: SERPFeatures{FeaturedSnippet: true}, want: DifficultyEasy},
		{name: "long tail with paa and snippet", keyword: "best cloud backup pricing", serp: SERPFeatures{FeaturedSnippet: true, PeopleAlsoAsk: true}, want: DifficultyMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateDifficultyFree(tt.keyword, tt.serp); got != tt.want {
				t.Errorf("EstimateDifficultyFree(%q) = %s, want %s", tt.keyword, got, tt.want)
			}
		})
	}
}

func TestEstimateVolumeFree(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		pop  *float64
		want string
	}{
		{name: "nil", pop: nil, want: "0-100"},
		{name: "zero", pop: f(0), want: "0-100"},
		{name: "low", pop: f(9), want: "0-100"},
		{name: "100-500", pop: f(10), want: "100-500"},
		{name: "500-1K", pop: f(30), want: "500-1K"},
		{name: "1K-10K", pop: f(74.9), want: "1K-10K"},
		{name: "10K+", pop: f(75), want: "10K+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateVolumeFree(tt.pop); got != tt.want {
				t.Errorf("EstimateVolumeFree() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSERPFeaturesMerge(t *testing.T) {
	a := SERPFeatures{FeaturedSnippet: true}
	b := SERPFeatures{PeopleAlsoAsk: true, LocalPack: true}

	got := a.Merge(b)
	want := SERPFeatures{FeaturedSnippet: true, PeopleAlsoAsk: true, LocalPack: true}

	if got != want {
		t.Errorf("Merge() = %+v, want %+v", got, want)
	}
}
