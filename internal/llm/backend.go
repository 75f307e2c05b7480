package llm

import (
	"context"
	"fmt"
	"strings"
)

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the outcome of one chat request. Status is the HTTP status
// of the upstream response; Content is only meaningful when Status is 200.
type Completion struct {
	Status  int
	Content string
}

// ChatBackend sends a chat request to one provider. A returned error means
// the request never produced an HTTP response (network, encoding).
type ChatBackend interface {
	Chat(ctx context.Context, model string, messages []Message) (Completion, error)
}

// Provider names used in candidate model strings
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// Candidate is one entry of the fallback chain
type Candidate struct {
	Provider string
	Model    string
}

func (c Candidate) String() string {
	return c.Provider + ":" + c.Model
}

// ParseCandidate splits "provider:model" at the first colon, so model names
// may themselves contain colons ("openrouter:mistralai/mistral-7b-instruct:free").
func ParseCandidate(s string) (Candidate, error) {
	provider, model, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || provider == "" || model == "" {
		return Candidate{}, fmt.Errorf("invalid candidate model %q: want provider:model", s)
	}
	return Candidate{Provider: provider, Model: model}, nil
}

// ParseCandidates parses a priority-ordered model list
func ParseCandidates(list []string) ([]Candidate, error) {
	out := make([]Candidate, 0, len(list))
	for _, s := range list {
		c, err := ParseCandidate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
