package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

// openaiProvider implements the Provider interface for OpenAI chat models.
type openaiProvider struct {
	apiKey      string
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider creates a new OpenAI LLM provider.
func NewOpenAIProvider(cfg config.LLMConfig, logger *zerolog.Logger) *openaiProvider {
	return &openaiProvider{
		apiKey:      cfg.OpenAIAPIKey,
		client:      openai.NewClient(cfg.OpenAIAPIKey),
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimitRPS),
	}
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

// IsAvailable returns true if the provider is configured.
func (p *openaiProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Priority returns the provider priority.
func (p *openaiProvider) Priority() int {
	return PriorityPrimary
}

// resolveModel keeps OpenAI model names and maps foreign ones to the default.
func (p *openaiProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixGPT) || strings.HasPrefix(model, modelPrefixO) {
		return model
	}

	return openai.GPT4oMini
}

// Complete implements Provider interface.
func (p *openaiProvider) Complete(ctx context.Context, prompt, model string, maxTokens int) (Completion, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf(errRateLimiterSimple, err)
	}

	resolvedModel := p.resolveModel(model)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               resolvedModel,
		MaxCompletionTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("openai chat completion: %w", errors.ErrEmptyResponse)
	}

	return Completion{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            resolvedModel,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func newRateLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		rps = defaultRateLimitRPS
	}

	return rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst)
}

// Ensure openaiProvider implements Provider interface.
var _ Provider = (*openaiProvider)(nil)
