package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

// Reasons recorded on an LLMAnalysis that carries no summary
const (
	ReasonNoComments    = "no comments to analyze"
	ReasonAllFiltered   = "all comments were filtered out during sanitization"
	ReasonAllFailed     = "all candidate models failed"
	ReasonNoCandidates  = "no candidate models configured"
	ReasonCancelled     = "analysis cancelled"
	reasonAbortedFormat = "model %s returned HTTP %d"
)

// ChainOptions tunes a Chain
type ChainOptions struct {
	MaxPromptComments int
	MaxCommentWords   int
}

// Chain summarizes comments with the first candidate model that answers.
// Models are tried one at a time, in order.
type Chain struct {
	backends   map[string]ChatBackend
	candidates []Candidate
	opts       ChainOptions
	log        *logger.Logger
}

// NewChain creates a fallback chain. backends maps provider name to backend.
func NewChain(backends map[string]ChatBackend, candidates []Candidate, opts ChainOptions, log *logger.Logger) *Chain {
	if opts.MaxPromptComments <= 0 {
		opts.MaxPromptComments = DefaultMaxPromptComments
	}
	if opts.MaxCommentWords <= 0 {
		opts.MaxCommentWords = DefaultMaxCommentWords
	}
	return &Chain{
		backends:   backends,
		candidates: candidates,
		opts:       opts,
		log:        log.WithComponent("llm"),
	}
}

// Summarize produces pros, cons and next hot topic for one video. It never
// fails: when no summary can be produced the record is returned degraded,
// with empty sections and Reason set.
func (c *Chain) Summarize(ctx context.Context, video models.VideoDescriptor, comments []string) models.Result[models.LLMAnalysis] {
	rec := models.NewLLMAnalysis(video)
	rec.CommentsFetched = len(comments)
	log := c.log.WithVideoID(video.VideoID)

	degrade := func(reason string) models.Result[models.LLMAnalysis] {
		rec.Reason = reason
		log.Warn().Str("reason", reason).Msg("No summary produced")
		return models.Degraded(rec, reason)
	}

	if len(comments) == 0 {
		return degrade(ReasonNoComments)
	}

	sanitized := Sanitize(comments, c.opts.MaxCommentWords)
	rec.CommentsSanitized = len(sanitized)
	log.Debug().
		Int("fetched", len(comments)).
		Int("sanitized", len(sanitized)).
		Msg("Comments sanitized")
	if len(sanitized) == 0 {
		return degrade(ReasonAllFiltered)
	}
	if len(c.candidates) == 0 {
		return degrade(ReasonNoCandidates)
	}

	messages := BuildMessages(video, sanitized, c.opts.MaxPromptComments)

	for _, cand := range c.candidates {
		if ctx.Err() != nil {
			return degrade(ReasonCancelled)
		}

		mlog := log.WithModel(cand.String())
		backend, ok := c.backends[cand.Provider]
		if !ok {
			mlog.Warn().Msg("No backend for provider, skipping model")
			continue
		}

		completion, err := backend.Chat(ctx, cand.Model, messages)
		if err != nil {
			mlog.Warn().Err(err).Msg("Model request failed, trying next")
			continue
		}

		switch completion.Status {
		case http.StatusOK:
		case http.StatusTooManyRequests, http.StatusForbidden:
			mlog.Warn().Int("status", completion.Status).Msg("Model unavailable, trying next")
			continue
		default:
			// any other upstream status ends the chain
			mlog.Error().Int("status", completion.Status).Msg("Model request rejected, aborting chain")
			return degrade(fmt.Sprintf(reasonAbortedFormat, cand, completion.Status))
		}

		if strings.TrimSpace(completion.Content) == "" {
			mlog.Warn().Msg("Empty completion, trying next")
			continue
		}

		parsed := parseResponse(completion.Content)
		if parsed.empty() {
			mlog.Warn().Msg("Completion had no recognizable sections, trying next")
			continue
		}
		parsed = parsed.withoutTopicCons()

		rec.Pros = strings.Join(parsed.Pros, "\n")
		rec.Cons = strings.Join(parsed.Cons, "\n")
		rec.NextHotTopic = strings.Join(parsed.NextHotTopic, "\n")
		rec.Model = cand.String()

		mlog.Info().
			Int("pros", len(parsed.Pros)).
			Int("cons", len(parsed.Cons)).
			Int("topics", len(parsed.NextHotTopic)).
			Msg("Comments summarized")
		return models.Ok(rec)
	}

	if ctx.Err() != nil {
		return degrade(ReasonCancelled)
	}
	return degrade(ReasonAllFailed)
}
