package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/pkg/logger"
	"github.com/comment-insights/pkg/ratelimit"
)

func TestOpenRouterChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("HTTP-Referer") != "https://example.test/" || r.Header.Get("X-Title") != "Insights" {
			t.Errorf("missing attribution headers: %v", r.Header)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Model == "busy" {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":"rate limited"}`)
			return
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"PROS:\n- ok"}}]}`)
	}))
	defer srv.Close()

	o := NewOpenRouter(config.OpenRouterConfig{
		APIKey:  "secret",
		BaseURL: srv.URL + "/api/v1/",
		Referer: "https://example.test/",
		Title:   "Insights",
	}, 0, ratelimit.NewLimiter(ratelimit.Limits{}), logger.Nop())

	msgs := []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}}

	got, err := o.Chat(context.Background(), "good", msgs)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Status != http.StatusOK || got.Content != "PROS:\n- ok" {
		t.Errorf("Chat = %+v", got)
	}

	got, err = o.Chat(context.Background(), "busy", msgs)
	if err != nil || got.Status != http.StatusTooManyRequests {
		t.Errorf("Chat(busy) = %+v, %v", got, err)
	}
}

func TestOpenRouterNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := NewOpenRouter(config.OpenRouterConfig{BaseURL: url}, 0, nil, logger.Nop())
	if _, err := o.Chat(context.Background(), "m", nil); err == nil {
		t.Fatal("expected network error")
	}
}

func TestAnthropicChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model  string `json:"model"`
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		if body.Model == "overloaded" {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"type":"error","error":{"type":"permission_error","message":"nope"}}`)
			return
		}
		if len(body.System) != 1 || body.System[0].Text != "s" {
			t.Errorf("system = %+v", body.System)
		}
		io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "CONS:\n- slow"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	a := NewAnthropic(config.AnthropicConfig{APIKey: "k"}, nil, logger.Nop(), option.WithBaseURL(srv.URL))
	msgs := []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}}

	got, err := a.Chat(context.Background(), "claude-test", msgs)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Status != http.StatusOK || got.Content != "CONS:\n- slow" {
		t.Errorf("Chat = %+v", got)
	}

	got, err = a.Chat(context.Background(), "overloaded", msgs)
	if err != nil || got.Status != http.StatusForbidden {
		t.Errorf("Chat(overloaded) = %+v, %v", got, err)
	}
}
