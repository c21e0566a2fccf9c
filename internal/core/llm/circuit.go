package llm

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CircuitBreakerConfig configures when a provider is taken out of rotation.
type CircuitBreakerConfig struct {
	Threshold  int
	ResetAfter time.Duration
}

// CircuitBreaker takes a provider out of a task chain after Threshold
// consecutive failures and lets it back in after ResetAfter.
type CircuitBreaker struct {
	mu                  sync.Mutex
	threshold           int
	resetAfter          time.Duration
	consecutiveFailures int
	openUntil           time.Time
	now                 func() time.Time
	logger              *zerolog.Logger
}

// NewCircuitBreaker builds a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:  cfg.Threshold,
		resetAfter: cfg.ResetAfter,
		now:        time.Now,
		logger:     logger,
	}
}

// CanAttempt reports whether the circuit is closed.
func (cb *CircuitBreaker) CanAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return !cb.now().Before(cb.openUntil)
}

// RecordSuccess resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
}

// RecordFailure counts a failed call and reports whether this failure
// opened the circuit.
func (cb *CircuitBreaker) RecordFailure(providerName ProviderName) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++

	now := cb.now()
	if cb.consecutiveFailures < cb.threshold || now.Before(cb.openUntil) {
		return false
	}

	cb.openUntil = now.Add(cb.resetAfter)
	cb.consecutiveFailures = 0

	if cb.logger != nil {
		cb.logger.Warn().
			Str(logKeyProvider, string(providerName)).
			Int("threshold", cb.threshold).
			Time("open_until", cb.openUntil).
			Msg("LLM circuit breaker opened")
	}

	return true
}
