// Package llm is the boundary to the generative-language collaborator used
// for keyword classification, clustering, selection, strategy drafting and
// post validation. Callers describe a task and receive raw text; parsing is
// their responsibility (see ExtractJSON).
package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

// Request is one collaborator call.
type Request struct {
	Task      TaskType
	Prompt    string
	Model     string // optional; overrides the task chain model
	MaxTokens int
}

// Response is the collaborator answer together with usage information.
type Response struct {
	Text             string
	Provider         ProviderName
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client completes task prompts.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// buildCircuitConfig creates a CircuitBreakerConfig with defaults applied.
func buildCircuitConfig(cfg config.LLMConfig) CircuitBreakerConfig {
	circuitCfg := CircuitBreakerConfig{
		Threshold:  cfg.CircuitThreshold,
		ResetAfter: cfg.CircuitTimeout,
	}

	if circuitCfg.Threshold == 0 {
		circuitCfg.Threshold = defaultCircuitThreshold
	}

	if circuitCfg.ResetAfter == 0 {
		circuitCfg.ResetAfter = defaultCircuitTimeout
	}

	return circuitCfg
}

// registerProviders registers all configured providers with the registry.
func registerProviders(ctx context.Context, registry *Registry, cfg config.LLMConfig, logger *zerolog.Logger, circuitCfg CircuitBreakerConfig) {
	if cfg.OpenAIAPIKey != "" && cfg.OpenAIAPIKey != llmAPIKeyMock {
		registry.Register(NewOpenAIProvider(cfg, logger), circuitCfg)
	}

	if cfg.AnthropicAPIKey != "" {
		registry.Register(NewAnthropicProvider(cfg, logger), circuitCfg)
	}

	if cfg.GoogleAPIKey != "" {
		googleProvider, err := NewGoogleProvider(ctx, cfg, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create Google LLM provider")
		} else {
			registry.Register(googleProvider, circuitCfg)
		}
	}

	// If no providers configured, use mock
	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no LLM provider configured, using mock provider")
		registry.Register(NewMockProvider(), circuitCfg)
	}
}

// New creates a collaborator client with multi-provider fallback support.
// Providers are tried per task chain: OpenAI, then Anthropic, then Google.
// If no providers are configured, it falls back to a mock provider.
func New(ctx context.Context, cfg config.LLMConfig, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	registry := NewRegistry(logger)
	registry.SetCallTimeout(cfg.Timeout)
	registry.SetTaskModelOverride(TaskClassify, cfg.ClassifyModel)
	registry.SetTaskModelOverride(TaskCluster, cfg.ClusterModel)
	registry.SetTaskModelOverride(TaskSelect, cfg.SelectModel)
	registry.SetTaskModelOverride(TaskStrategy, cfg.StrategyModel)
	registry.SetTaskModelOverride(TaskValidate, cfg.ValidateModel)

	registerProviders(ctx, registry, cfg, logger, buildCircuitConfig(cfg))

	return registry
}
