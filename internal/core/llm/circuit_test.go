package llm

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	logger := zerolog.Nop()
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Hour}, &logger)

	assert.False(t, cb.RecordFailure(ProviderOpenAI))
	assert.True(t, cb.CanAttempt(), "circuit opened before threshold")

	assert.True(t, cb.RecordFailure(ProviderOpenAI))
	assert.False(t, cb.CanAttempt())
}

func TestCircuitBreakerClosesAfterReset(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Minute}, nil)
	cb.now = func() time.Time { return now }

	assert.True(t, cb.RecordFailure(ProviderGoogle))
	assert.False(t, cb.CanAttempt())

	now = now.Add(time.Minute)
	assert.True(t, cb.CanAttempt())

	// A failure after the reset opens the circuit again.
	assert.True(t, cb.RecordFailure(ProviderGoogle))
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Hour}, nil)

	cb.RecordFailure(ProviderAnthropic)
	cb.RecordSuccess()
	cb.RecordFailure(ProviderAnthropic)

	assert.True(t, cb.CanAttempt(), "success should reset consecutive failures")
}
