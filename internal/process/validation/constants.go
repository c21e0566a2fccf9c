package validation

import "time"

const (
	logKeyVersionID = "version_id"
	logKeyItemID    = "item_id"
	logKeyBatch     = "batch"

	defaultBatchSize     = 5
	defaultBatchDelay    = time.Second
	defaultKBSnapshotLen = 1000

	validateMaxTokens = 2000

	msgServiceUnavailable = "Validation service temporarily unavailable"
	msgParseFailed        = "Validation response parsing failed"
)
