package research

import "strings"

// Sector hints understood by the trend sources.
const (
	SectorTech      = "tech"
	SectorMarketing = "marketing"
	SectorSEO       = "seo"
	SectorSaaS      = "saas"
	SectorHealth    = "health"
	SectorFinance   = "finance"
	SectorDefault   = "default"
)

var sectorMarkers = []struct {
	sector  string
	markers []string
}{
	{sector: SectorTech, markers: []string{"tech", "software"}},
	{sector: SectorMarketing, markers: []string{"market", "brand"}},
	{sector: SectorSEO, markers: []string{"seo"}},
	{sector: SectorSaaS, markers: []string{"saas"}},
	{sector: SectorHealth, markers: []string{"health"}},
	{sector: SectorFinance, markers: []string{"financ"}},
}

// InferSector guesses the project's sector from its description and
// objectives. The first matching sector in a fixed order wins.
func InferSector(description, objectives string) string {
	text := strings.ToLower(description + " " + objectives)

	for _, s := range sectorMarkers {
		for _, m := range s.markers {
			if strings.Contains(text, m) {
				return s.sector
			}
		}
	}

	return SectorDefault
}
