package llm

import (
	"context"
)

// mockProvider answers every prompt with an empty JSON array, so callers take
// their degraded paths (default classification, one catch-all cluster,
// fallback selection).
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Priority returns the lowest priority.
func (p *mockProvider) Priority() int {
	return PriorityMock
}

// Complete implements Provider interface.
func (p *mockProvider) Complete(_ context.Context, _, model string, _ int) (Completion, error) {
	return Completion{Text: "[]", Model: model}, nil
}

// Ensure mockProvider implements Provider interface.
var _ Provider = (*mockProvider)(nil)
