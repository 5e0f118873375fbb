package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/metrics"
)

// CompleterConfig adds generation settings to the connection Config.
type CompleterConfig struct {
	Config
	Temperature float32
	MaxTokens   int
}

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	provider    string
	logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	return &Completer{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, systemPrompt, userPrompt string) (domain.CompletionResult, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.fail("api_error")
		return domain.CompletionResult{}, parseAPIError("completion", err, domain.ErrCompletionFailed)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.fail("empty_response")
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionFailed)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, c.model, metrics.OpComplete, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(c.provider, c.model, metrics.OpComplete).Observe(duration.Seconds())
	metrics.ProviderTokensTotal.WithLabelValues(c.provider, c.model, metrics.OpComplete, "prompt").
		Add(float64(resp.Usage.PromptTokens))
	metrics.ProviderTokensTotal.WithLabelValues(c.provider, c.model, metrics.OpComplete, "completion").
		Add(float64(resp.Usage.CompletionTokens))

	c.logger.Debug("Completed chat",
		zap.String("model", c.model),
		zap.Int("tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", duration),
	)

	return domain.CompletionResult{
		Text:        strings.TrimSpace(resp.Choices[0].Message.Content),
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

func (c *Completer) fail(errType string) {
	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, c.model, metrics.OpComplete, "error").Inc()
	metrics.ProviderErrorsTotal.WithLabelValues(c.provider, c.model, metrics.OpComplete, errType).Inc()
}
