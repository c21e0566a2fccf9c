package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

// Default model for Anthropic.
const defaultAnthropicModel = "claude-haiku-4-5"

// anthropicProvider implements the Provider interface for Anthropic Claude.
type anthropicProvider struct {
	apiKey      string
	client      anthropic.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewAnthropicProvider creates a new Anthropic LLM provider.
func NewAnthropicProvider(cfg config.LLMConfig, logger *zerolog.Logger) *anthropicProvider {
	return &anthropicProvider{
		apiKey:      cfg.AnthropicAPIKey,
		client:      anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimitRPS),
	}
}

// Name returns the provider identifier.
func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// IsAvailable returns true if the provider is configured.
func (p *anthropicProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Priority returns the provider priority.
func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

// resolveModel returns the appropriate model name for Anthropic.
func (p *anthropicProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixClaude) {
		return model
	}

	return defaultAnthropicModel
}

// Complete implements Provider interface.
func (p *anthropicProvider) Complete(ctx context.Context, prompt, model string, maxTokens int) (Completion, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf(errRateLimiterSimple, err)
	}

	resolvedModel := p.resolveModel(model)

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(resolvedModel),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic messages: %w", err)
	}

	if len(resp.Content) == 0 {
		return Completion{}, fmt.Errorf("anthropic messages: %w", errors.ErrEmptyResponse)
	}

	return Completion{
		Text:             strings.TrimSpace(extractTextFromResponse(resp)),
		Model:            resolvedModel,
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// extractTextFromResponse concatenates the text blocks of a message.
func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

// Ensure anthropicProvider implements Provider interface.
var _ Provider = (*anthropicProvider)(nil)
