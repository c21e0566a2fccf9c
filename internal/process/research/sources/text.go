package sources

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "have": {},
	"has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {},
	"should": {}, "could": {}, "may": {}, "might": {}, "must": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "your": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "about": {}, "into": {}, "than": {}, "then": {}, "them": {},
	"they": {}, "their": {}, "there": {}, "just": {}, "like": {}, "more": {}, "most": {},
}

// ExtractKeywords returns up to limit lowercase tokens of text that are at
// least four runes long and not stopwords, in order of appearance.
func ExtractKeywords(text string, limit int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	out := make([]string, 0, min(limit, len(fields)))

	for _, w := range fields {
		if len(out) >= limit {
			break
		}

		if utf8.RuneCountInString(w) < minKeywordRunes {
			continue
		}

		if _, stop := stopwords[w]; stop {
			continue
		}

		out = append(out, w)
	}

	return out
}

// uniqueStrings drops empty and repeated values, keeping first occurrences.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
