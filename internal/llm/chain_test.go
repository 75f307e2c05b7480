package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

type reply struct {
	completion Completion
	err        error
}

// scriptedBackend answers each model from a fixed script and records calls
type scriptedBackend struct {
	replies map[string]reply
	calls   []string
}

func (b *scriptedBackend) Chat(_ context.Context, model string, _ []Message) (Completion, error) {
	b.calls = append(b.calls, model)
	r, ok := b.replies[model]
	if !ok {
		return Completion{}, errors.New("unexpected model")
	}
	return r.completion, r.err
}

const goodAnswer = `PROS:
- Clear explanations
CONS:
- Audio is quiet
- More on generics please
NEXT HOT TOPIC:
- More on generics please
`

var chainVideo = models.VideoDescriptor{VideoID: "vid1", Title: "Go Generics", ChannelName: "Gophers"}

var chainComments = []string{
	"This was a really clear explanation of generics, thank you",
	"The audio is a bit quiet in the second half of the video",
}

func newTestChain(b ChatBackend, specs ...string) *Chain {
	cands, err := ParseCandidates(specs)
	if err != nil {
		panic(err)
	}
	return NewChain(map[string]ChatBackend{ProviderOpenRouter: b}, cands, ChainOptions{}, logger.Nop())
}

func TestChainFallsThroughRateLimits(t *testing.T) {
	b := &scriptedBackend{replies: map[string]reply{
		"m1":      {completion: Completion{Status: http.StatusTooManyRequests}},
		"m2":      {completion: Completion{Status: http.StatusForbidden}},
		"m3":      {err: errors.New("connection reset")},
		"m4":      {completion: Completion{Status: http.StatusOK, Content: "   "}},
		"m5":      {completion: Completion{Status: http.StatusOK, Content: "no idea"}},
		"m6:free": {completion: Completion{Status: http.StatusOK, Content: goodAnswer}},
	}}
	c := newTestChain(b, "openrouter:m1", "openrouter:m2", "openrouter:m3", "openrouter:m4", "openrouter:m5", "openrouter:m6:free")

	res := c.Summarize(context.Background(), chainVideo, chainComments)
	if res.IsDegraded() {
		t.Fatalf("unexpected degraded result: %s", res.Reason)
	}
	rec := res.Value
	if rec.Model != "openrouter:m6:free" {
		t.Errorf("Model = %q", rec.Model)
	}
	if rec.Pros != "Clear explanations" {
		t.Errorf("Pros = %q", rec.Pros)
	}
	if rec.Cons != "Audio is quiet" {
		t.Errorf("Cons = %q (topic request must not be a con)", rec.Cons)
	}
	if rec.NextHotTopic != "More on generics please" {
		t.Errorf("NextHotTopic = %q", rec.NextHotTopic)
	}
	if rec.VideoID != "vid1" || rec.VideoTitle != "Go Generics" || rec.CommentsFetched != 2 || rec.CommentsSanitized != 2 {
		t.Errorf("metadata = %+v", rec)
	}
	if len(b.calls) != 6 {
		t.Errorf("calls = %v", b.calls)
	}
}

func TestChainAbortsOnOtherStatus(t *testing.T) {
	b := &scriptedBackend{replies: map[string]reply{
		"m1": {completion: Completion{Status: http.StatusInternalServerError}},
		"m2": {completion: Completion{Status: http.StatusOK, Content: goodAnswer}},
	}}
	c := newTestChain(b, "openrouter:m1", "openrouter:m2")

	res := c.Summarize(context.Background(), chainVideo, chainComments)
	if !res.IsDegraded() {
		t.Fatal("expected degraded result")
	}
	if !strings.Contains(res.Value.Reason, "500") {
		t.Errorf("Reason = %q", res.Value.Reason)
	}
	if !res.Value.Empty() {
		t.Errorf("sections should be empty: %+v", res.Value)
	}
	if len(b.calls) != 1 {
		t.Errorf("chain should stop after first model, calls = %v", b.calls)
	}
}

func TestChainExhausted(t *testing.T) {
	b := &scriptedBackend{replies: map[string]reply{
		"m1": {completion: Completion{Status: http.StatusTooManyRequests}},
	}}
	// the anthropic candidate has no backend and is skipped
	c := newTestChain(b, "openrouter:m1", "anthropic:claude")

	res := c.Summarize(context.Background(), chainVideo, chainComments)
	if !res.IsDegraded() || res.Value.Reason != ReasonAllFailed {
		t.Errorf("result = %+v", res)
	}
}

func TestChainNothingToAnalyze(t *testing.T) {
	b := &scriptedBackend{}
	c := newTestChain(b, "openrouter:m1")

	res := c.Summarize(context.Background(), chainVideo, nil)
	if res.Value.Reason != ReasonNoComments {
		t.Errorf("Reason = %q", res.Value.Reason)
	}

	res = c.Summarize(context.Background(), chainVideo, []string{"🔥🔥", "Это отличное видео, спасибо большое"})
	if res.Value.Reason != ReasonAllFiltered || res.Value.CommentsFetched != 2 || res.Value.CommentsSanitized != 0 {
		t.Errorf("result = %+v", res.Value)
	}
	if len(b.calls) != 0 {
		t.Errorf("no model should be called, got %v", b.calls)
	}
}

func TestChainPromptCap(t *testing.T) {
	var prompt string
	b := chatFunc(func(_ context.Context, _ string, msgs []Message) (Completion, error) {
		prompt = msgs[len(msgs)-1].Content
		return Completion{Status: http.StatusOK, Content: goodAnswer}, nil
	})
	cands, _ := ParseCandidates([]string{"openrouter:m"})
	c := NewChain(map[string]ChatBackend{ProviderOpenRouter: b}, cands, ChainOptions{MaxPromptComments: 1}, logger.Nop())

	c.Summarize(context.Background(), chainVideo, chainComments)
	if !strings.Contains(prompt, chainComments[0]) || strings.Contains(prompt, chainComments[1]) {
		t.Errorf("prompt should embed only the first comment:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Go Generics") || !strings.Contains(prompt, "Gophers") {
		t.Errorf("prompt should name the video and channel")
	}
}

type chatFunc func(ctx context.Context, model string, msgs []Message) (Completion, error)

func (f chatFunc) Chat(ctx context.Context, model string, msgs []Message) (Completion, error) {
	return f(ctx, model, msgs)
}

func TestParseCandidate(t *testing.T) {
	c, err := ParseCandidate("openrouter:mistralai/mistral-7b-instruct:free")
	if err != nil || c.Provider != "openrouter" || c.Model != "mistralai/mistral-7b-instruct:free" {
		t.Errorf("ParseCandidate = %+v, %v", c, err)
	}
	for _, bad := range []string{"", "gpt-4", ":model", "openrouter:"} {
		if _, err := ParseCandidate(bad); err == nil {
			t.Errorf("ParseCandidate(%q) expected error", bad)
		}
	}
}

func TestStrategy(t *testing.T) {
	b := &scriptedBackend{replies: map[string]reply{
		"m1": {completion: Completion{Status: http.StatusOK, Content: goodAnswer}},
	}}
	s := NewStrategy(newTestChain(b, "openrouter:m1"))

	rec, err := s.Analyze(context.Background(), chainVideo, []models.Comment{{Text: chainComments[0]}})
	if err != nil || !s.Succeeded(rec) {
		t.Errorf("Analyze = %+v, %v", rec, err)
	}
	if empty := s.Empty(chainVideo); s.Succeeded(empty) || empty.Reason != ReasonNoComments {
		t.Errorf("Empty = %+v", empty)
	}
	failed := s.Failed(models.VideoDescriptor{}, errors.New("boom"))
	if failed.VideoID != models.UnknownVideoID || failed.Reason != "error: boom" {
		t.Errorf("Failed = %+v", failed)
	}
}
