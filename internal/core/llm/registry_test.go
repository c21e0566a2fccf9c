package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
)

var errProviderDown = errors.New("provider down")

type stubProvider struct {
	name      ProviderName
	priority  int
	available bool
	text      string
	err       error
	models    []string
}

func (s *stubProvider) Name() ProviderName { return s.name }
func (s *stubProvider) IsAvailable() bool { return s.available }
func (s *stubProvider) Priority() int { return s.priority }

func (s *stubProvider) Complete(_ context.Context, _, model string, _ int) (Completion, error) {
	s.models = append(s.models, model)

	if s.err != nil {
		return Completion{}, s.err
	}

	return Completion{Text: s.text, Model: model, PromptTokens: 3, CompletionTokens: 2}, nil
}

func newTestRegistry() *Registry {
	logger := zerolog.Nop()

	return NewRegistry(&logger)
}

var testCircuit = CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Hour}

func TestRegistryUsesTaskChainOrder(t *testing.T) {
	r := newTestRegistry()
	openai := &stubProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, text: "from openai"}
	anthropic := &stubProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, text: "from anthropic"}

	r.Register(openai, testCircuit)
	r.Register(anthropic, testCircuit)

	resp, err := r.Complete(context.Background(), Request{Task: TaskCluster, Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, resp.Provider)
	assert.Equal(t, "from anthropic", resp.Text)
	assert.Equal(t, []string{"claude-sonnet-4-5"}, anthropic.models)
	assert.Empty(t, openai.models)
}

func TestRegistryFallsBackOnFailure(t *testing.T) {
	r := newTestRegistry()
	openai := &stubProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}
	anthropic := &stubProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, text: "ok"}

	r.Register(openai, testCircuit)
	r.Register(anthropic, testCircuit)

	resp, err := r.Complete(context.Background(), Request{Task: TaskClassify, Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, resp.Provider)

	// Threshold 1: the failing provider is now skipped without a call.
	_, err = r.Complete(context.Background(), Request{Task: TaskClassify, Prompt: "p"})
	require.NoError(t, err)
	assert.Len(t, openai.models, 1)
}

func TestRegistryAllProvidersFail(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}, testCircuit)

	_, err := r.Complete(context.Background(), Request{Task: TaskValidate, Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorIs(t, err, errProviderDown)
}

func TestRegistryReportsEveryFailure(t *testing.T) {
	r := newTestRegistry()
	errQuota := errors.New("quota exceeded")

	r.Register(&stubProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}, testCircuit)
	r.Register(&stubProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, err: errQuota}, testCircuit)

	_, err := r.Complete(context.Background(), Request{Task: TaskStrategy, Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errProviderDown)
	assert.ErrorIs(t, err, errQuota)
	assert.Contains(t, err.Error(), "anthropic: quota exceeded")
}

func TestRegistryOpenCircuits(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}, testCircuit)

	_, err := r.Complete(context.Background(), Request{Task: TaskClassify, Prompt: "p"})
	require.ErrorIs(t, err, ErrAllProvidersFailed)

	_, err = r.Complete(context.Background(), Request{Task: TaskClassify, Prompt: "p"})
	require.ErrorIs(t, err, ErrNoProvidersAvailable)
	assert.ErrorIs(t, err, coreerrors.ErrCircuitBreakerOpen)
}

func TestRegistryRequestModelWins(t *testing.T) {
	r := newTestRegistry()
	openai := &stubProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, text: "ok"}

	r.Register(openai, testCircuit)
	r.SetTaskModelOverride(TaskClassify, "gpt-4.1-mini")

	_, err := r.Complete(context.Background(), Request{Task: TaskClassify, Prompt: "p", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o"}, openai.models)
}

func TestRegistryNoProviders(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Complete(context.Background(), Request{Task: TaskStrategy, Prompt: "p"})
	assert.ErrorIs(t, err, ErrNoProvidersAvailable)
}

func TestRegistryTaskModelOverride(t *testing.T) {
	r := newTestRegistry()
	openai := &stubProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, text: "ok"}

	r.Register(openai, testCircuit)
	r.SetTaskModelOverride(TaskValidate, "gpt-4.1-mini")

	_, err := r.Complete(context.Background(), Request{Task: TaskValidate, Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4.1-mini"}, openai.models)
}

func TestRegistrySkipsUnavailable(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: false}, testCircuit)
	r.Register(NewMockProvider(), testCircuit)

	resp, err := r.Complete(context.Background(), Request{Task: TaskClassify, Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, resp.Provider)
	assert.Equal(t, "[]", resp.Text)
}
