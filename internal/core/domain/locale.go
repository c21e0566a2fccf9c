package domain

import "golang.org/x/text/language"

// DefaultRegion is used when a language tag carries no usable region.
const DefaultRegion = "US"

// RegionForLanguage returns the most likely ISO 3166 region of a language
// tag, such as "US" for "en" and "IT" for "it".
func RegionForLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return DefaultRegion
	}

	region, confidence := tag.Region()
	if confidence == language.No {
		return DefaultRegion
	}

	return region.String()
}
