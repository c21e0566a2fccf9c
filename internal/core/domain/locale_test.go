package domain

import "testing"

func TestRegionForLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{lang: "en", want: "US"},
		{lang: "fr", want: "FR"},
		{lang: "it", want: "IT"},
		{lang: "pt-BR", want: "BR"},
		{lang: "not a tag", want: DefaultRegion},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			if got := RegionForLanguage(tt.lang); got != tt.want {
				t.Errorf("RegionForLanguage(%q) = %q, want %q", tt.lang, got, tt.want)
			}
		})
	}
}
