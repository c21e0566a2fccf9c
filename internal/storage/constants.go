package db

import "time"

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants
const (
	defaultMaxConns          int32         = 25
	defaultMinConns          int32         = 5
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)

// PostgreSQL error codes and constraint names.
const (
	pgUniqueViolation = "23505"

	constraintOneActiveRun      = "research_runs_one_active_idx"
	constraintOneOpenSession    = "strategy_sessions_one_open_idx"
	constraintPrimaryKeywordIdx = "content_items_primary_keyword_idx"
)

// Error message formats shared across repositories.
const (
	errFmtBeginTx  = "begin transaction: %w"
	errFmtCommitTx = "commit transaction: %w"
)
