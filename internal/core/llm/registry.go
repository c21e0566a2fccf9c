package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no LLM providers available")
	ErrAllProvidersFailed   = errors.New("all LLM providers failed")
)

type registered struct {
	provider Provider
	breaker  *CircuitBreaker
}

// candidate is one step of a task's fallback chain.
type candidate struct {
	name  ProviderName
	model string
	reg   *registered
}

// Registry routes each task through its provider chain. A provider is
// skipped while unavailable or while its circuit is open; every failure
// moves on to the next provider.
type Registry struct {
	mu          sync.RWMutex
	providers   map[ProviderName]*registered
	order       []ProviderName // priority order, highest first
	chains      map[TaskType]TaskProviderChain
	taskModels  map[TaskType]string
	callTimeout time.Duration
	logger      *zerolog.Logger
}

// NewRegistry builds an empty Registry with the default task chains.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		providers:  make(map[ProviderName]*registered),
		chains:     DefaultTaskConfig(),
		taskModels: make(map[TaskType]string),
		logger:     logger,
	}
}

// Register adds or replaces a provider with a fresh circuit breaker.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}

	r.providers[name] = &registered{provider: p, breaker: NewCircuitBreaker(cfg, r.logger)}

	sort.SliceStable(r.order, func(i, j int) bool {
		return r.providers[r.order[i]].provider.Priority() > r.providers[r.order[j]].provider.Priority()
	})

	setAvailability(name, p.IsAvailable())

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// SetCallTimeout bounds every individual provider attempt. Zero disables it.
func (r *Registry) SetCallTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callTimeout = d
}

// SetTaskModelOverride makes every provider of the task's chain use model.
// An empty model keeps the chain's models.
func (r *Registry) SetTaskModelOverride(task TaskType, model string) {
	if model == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.taskModels[task] = model

	r.logger.Debug().Str(logKeyTask, string(task)).Str(logKeyModel, model).Msg("set task model override")
}

// Complete implements Client. The request model wins over a task override,
// which wins over the chain's model.
func (r *Registry) Complete(ctx context.Context, req Request) (Response, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}

	candidates, override, timeout := r.plan(req.Task)
	if len(candidates) == 0 {
		return Response{}, ErrNoProvidersAvailable
	}

	if req.Model != "" {
		override = req.Model
	}

	var (
		failures    []error
		firstFailed ProviderName
		circuitOpen bool
	)

	for _, c := range candidates {
		if !c.reg.provider.IsAvailable() {
			continue
		}

		if !r.circuitClosed(c, req.Task) {
			circuitOpen = true
			continue
		}

		model := c.model
		if override != "" {
			model = override
		}

		resp, err := r.attempt(ctx, c, model, timeout, req)
		if err != nil {
			if firstFailed == "" {
				firstFailed = c.name
			}

			failures = append(failures, fmt.Errorf("%s: %w", c.name, err))

			continue
		}

		if firstFailed != "" {
			observability.LLMFallbacks.WithLabelValues(string(firstFailed), string(c.name), string(req.Task)).Inc()

			r.logger.Info().
				Str(logKeyProvider, string(c.name)).
				Str("from_provider", string(firstFailed)).
				Str(logKeyTask, string(req.Task)).
				Msg("used fallback LLM provider")
		}

		return resp, nil
	}

	if len(failures) == 0 {
		if circuitOpen {
			return Response{}, fmt.Errorf("%w: %w", ErrNoProvidersAvailable, coreerrors.ErrCircuitBreakerOpen)
		}

		return Response{}, ErrNoProvidersAvailable
	}

	return Response{}, errors.Join(append([]error{ErrAllProvidersFailed}, failures...)...)
}

// plan resolves the task chain followed by every other registered provider
// in priority order.
func (r *Registry) plan(task TaskType) ([]candidate, string, time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var steps []ProviderModel
	if chain, ok := r.chains[task]; ok {
		steps = chain.GetProviderChain()
	}

	for _, name := range r.order {
		steps = append(steps, ProviderModel{Provider: name})
	}

	seen := make(map[ProviderName]struct{}, len(steps))
	candidates := make([]candidate, 0, len(r.providers))

	for _, step := range steps {
		if _, dup := seen[step.Provider]; dup {
			continue
		}

		seen[step.Provider] = struct{}{}

		if reg, ok := r.providers[step.Provider]; ok {
			candidates = append(candidates, candidate{name: step.Provider, model: step.Model, reg: reg})
		}
	}

	return candidates, r.taskModels[task], r.callTimeout
}

func (r *Registry) circuitClosed(c candidate, task TaskType) bool {
	if c.reg.breaker.CanAttempt() {
		return true
	}

	observability.LLMCircuitBreakerState.WithLabelValues(string(c.name)).Set(MetricValueCBOpen)
	setAvailability(c.name, false)

	r.logger.Debug().Str(logKeyProvider, string(c.name)).Str(logKeyTask, string(task)).Msg(logMsgCircuitBreakerOpen)

	return false
}

func (r *Registry) attempt(ctx context.Context, c candidate, model string, timeout time.Duration, req Request) (Response, error) {
	callCtx, cancel := attemptContext(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := c.reg.provider.Complete(callCtx, req.Prompt, model, req.MaxTokens)
	elapsed := time.Since(start)

	observability.LLMRequestLatency.WithLabelValues(string(c.name), model, string(req.Task)).Observe(elapsed.Seconds())

	if err != nil {
		recordUsage(c.name, model, req.Task, Completion{}, false)

		if c.reg.breaker.RecordFailure(c.name) {
			observability.LLMCircuitBreakerOpens.WithLabelValues(string(c.name)).Inc()
			observability.LLMCircuitBreakerState.WithLabelValues(string(c.name)).Set(MetricValueCBOpen)
			setAvailability(c.name, false)
		}

		r.logger.Warn().
			Err(err).
			Str(logKeyProvider, string(c.name)).
			Str(logKeyModel, model).
			Str(logKeyTask, string(req.Task)).
			Dur("elapsed", elapsed).
			Msg("LLM provider failed, trying fallback")

		return Response{}, err
	}

	c.reg.breaker.RecordSuccess()
	observability.LLMCircuitBreakerState.WithLabelValues(string(c.name)).Set(MetricValueCBClosed)
	setAvailability(c.name, true)
	recordUsage(c.name, out.Model, req.Task, out, true)

	return Response{
		Text:             out.Text,
		Provider:         c.name,
		Model:            out.Model,
		PromptTokens:     out.PromptTokens,
		CompletionTokens: out.CompletionTokens,
	}, nil
}

func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func setAvailability(name ProviderName, available bool) {
	v := MetricValueUnavailable
	if available {
		v = MetricValueAvailable
	}

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(v)
}

func recordUsage(name ProviderName, model string, task TaskType, out Completion, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	observability.LLMRequests.WithLabelValues(string(name), model, string(task), status).Inc()

	if out.PromptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(string(name), model, string(task)).Add(float64(out.PromptTokens))
	}

	if out.CompletionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(string(name), model, string(task)).Add(float64(out.CompletionTokens))
	}
}

var _ Client = (*Registry)(nil)
