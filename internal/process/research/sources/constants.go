package sources

import "errors"

const (
	logKeySource = "source"
	logKeyURL    = "url"
	logKeySeed   = "seed"

	headerUserAgent = "User-Agent"
	headerAccept    = "Accept"

	maxBodyBytes        = 5 << 20
	minKeywordRunes     = 4
	maxTextKeywords     = 10
	errWrapFmtWithCode  = "%w: %d"
	errFmtCreateRequest = "create request: %w"
)

var errSourcePanic = errors.New("source panicked")
