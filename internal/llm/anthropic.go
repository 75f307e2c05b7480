package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/pkg/logger"
	"github.com/comment-insights/pkg/ratelimit"
)

// Anthropic wraps the Anthropic SDK client as a chat backend
type Anthropic struct {
	client      anthropic.Client
	maxTokens   int
	temperature float64
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewAnthropic creates a new Anthropic backend. Extra request options are
// appended after the API key (tests point it at a local server).
func NewAnthropic(cfg config.AnthropicConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger, opts ...option.RequestOption) *Anthropic {
	client := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}, opts...)...,
	)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &Anthropic{
		client:      client,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		rateLimiter: limiter,
		log:         log.WithComponent("anthropic"),
	}
}

// Chat sends the conversation to Claude. System messages become the system
// prompt. API errors are reported as a Completion status, not an error.
func (a *Anthropic) Chat(ctx context.Context, model string, messages []Message) (Completion, error) {
	if a.rateLimiter != nil {
		if err := a.rateLimiter.Wait(ctx, ratelimit.LimiterLLM); err != nil {
			return Completion{}, fmt.Errorf("rate limit error: %w", err)
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(a.maxTokens),
		Temperature: anthropic.Float(a.temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	a.log.Debug().
		Str("model", model).
		Int("max_tokens", a.maxTokens).
		Msg("Sending request to Claude")

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			a.log.Warn().Int("status", apiErr.StatusCode).Str("model", model).Msg("Claude API rejected request")
			return Completion{Status: apiErr.StatusCode}, nil
		}
		return Completion{}, fmt.Errorf("claude API error: %w", err)
	}

	var response strings.Builder
	for _, block := range message.Content {
		if text := block.AsText(); text.Text != "" {
			response.WriteString(text.Text)
		}
	}

	a.log.Debug().
		Int("input_tokens", int(message.Usage.InputTokens)).
		Int("output_tokens", int(message.Usage.OutputTokens)).
		Msg("Received Claude response")

	return Completion{Status: http.StatusOK, Content: response.String()}, nil
}
