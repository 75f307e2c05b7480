package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/pkg/logger"
	"github.com/comment-insights/pkg/ratelimit"
)

// OpenRouter talks to an OpenAI-compatible /chat/completions endpoint
type OpenRouter struct {
	apiKey      string
	baseURL     string
	referer     string
	title       string
	client      *http.Client
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewOpenRouter creates an OpenRouter backend
func NewOpenRouter(cfg config.OpenRouterConfig, timeout time.Duration, limiter *ratelimit.MultiLimiter, log *logger.Logger) *OpenRouter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouter{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		referer:     cfg.Referer,
		title:       cfg.Title,
		client:      &http.Client{Timeout: timeout},
		rateLimiter: limiter,
		log:         log.WithComponent("openrouter"),
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends one completion request
func (o *OpenRouter) Chat(ctx context.Context, model string, messages []Message) (Completion, error) {
	if o.rateLimiter != nil {
		if err := o.rateLimiter.Wait(ctx, ratelimit.LimiterLLM); err != nil {
			return Completion{}, fmt.Errorf("rate limit error: %w", err)
		}
	}

	data, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return Completion{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.referer != "" {
		req.Header.Set("HTTP-Referer", o.referer)
	}
	if o.title != "" {
		req.Header.Set("X-Title", o.title)
	}

	o.log.Debug().Str("model", model).Msg("Sending chat request")

	resp, err := o.client.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("openrouter API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		o.log.Warn().
			Str("model", model).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Chat request rejected")
		return Completion{Status: resp.StatusCode}, nil
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Completion{}, fmt.Errorf("decoding response: %w", err)
	}

	completion := Completion{Status: resp.StatusCode}
	if len(result.Choices) > 0 {
		completion.Content = result.Choices[0].Message.Content
	}
	return completion, nil
}
