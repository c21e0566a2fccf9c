package llm

import "time"

// Error message templates
const (
	errRateLimiterSimple = "rate limiter: %w"
)

// Model mapping strings
const (
	modelPrefixGPT    = "gpt-"
	modelPrefixO      = "o"
	modelPrefixClaude = "claude"
	modelPrefixGemini = "gemini"
	llmAPIKeyMock     = "mock"
)

// Log message strings
const (
	logMsgCircuitBreakerOpen = "skipping provider - circuit breaker open"
)

// Log key strings
const (
	logKeyProvider = "provider"
	logKeyTask     = "task"
	logKeyModel    = "model"
)

// Metric values
const (
	MetricValueAvailable   = 1.0
	MetricValueUnavailable = 0.0
	MetricValueCBOpen      = 1.0
	MetricValueCBClosed    = 0.0
	StatusSuccess          = "success"
	StatusError            = "error"
)

// Defaults
const (
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = time.Minute
	defaultMaxTokens        = 4096
	defaultRateLimitRPS     = 1
	rateLimiterBurst        = 5
	contentTypeText         = "text"
)
