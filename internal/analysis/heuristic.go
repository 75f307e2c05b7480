package analysis

import (
	"context"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

// Heuristic analyzes a video's comments with lexical sentiment, TF-IDF
// keywords, theme mining and engagement tags. It is stateless.
type Heuristic struct {
	log *logger.Logger
}

// NewHeuristic creates the structured per-video analyzer
func NewHeuristic(log *logger.Logger) *Heuristic {
	return &Heuristic{log: log.WithComponent("heuristic")}
}

// Analyze runs the full structured analysis for one video
func (h *Heuristic) Analyze(ctx context.Context, video models.VideoDescriptor, comments []models.Comment) (models.VideoAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return models.VideoAnalysis{}, err
	}
	if len(comments) == 0 {
		return h.Empty(video), nil
	}

	log := h.log.WithVideoID(video.VideoID)

	classified := make([]models.Comment, len(comments))
	labels := make([]models.Sentiment, len(comments))
	degraded := 0
	for i, c := range comments {
		res := Classify(c.Text)
		if res.IsDegraded() {
			degraded++
		}
		labels[i] = res.Value
		classified[i] = c.Classified(res.Value)
	}
	if degraded > 0 {
		log.Debug().Int("comments", degraded).Msg("Some comments defaulted to neutral")
	}

	texts := models.Texts(comments)

	keywords := ExtractKeywords(texts)
	themes := ProsCons(classified)
	topics := NextTopicIdeas(texts)
	for _, reason := range []string{keywords.Reason, themes.Reason, topics.Reason} {
		if reason != "" {
			log.Warn().Str("reason", reason).Msg("Analysis step degraded")
		}
	}

	a := models.NewFullAnalysis(video)
	a.CommentCount = len(comments)
	a.SentimentSummary = Summarize(labels)
	a.TopKeywords = MergeKeywords(keywords.Value, MeasureEngagement(comments).Tags())
	a.Pros = themes.Value.Pros
	a.Cons = themes.Value.Cons
	a.NextTopicIdeas = topics.Value
	a.Comments = classified

	log.Debug().
		Int("comments", a.CommentCount).
		Int("keywords", len(a.TopKeywords)).
		Int("pros", len(a.Pros)).
		Int("cons", len(a.Cons)).
		Msg("Video analyzed")

	return a, nil
}

// Empty is the result for a video without comments
func (h *Heuristic) Empty(video models.VideoDescriptor) models.VideoAnalysis {
	return models.NewEmptyAnalysis(video)
}

// Failed is the placeholder for a video whose processing failed
func (h *Heuristic) Failed(video models.VideoDescriptor, err error) models.VideoAnalysis {
	return models.NewErrorAnalysis(video, err.Error())
}

// Succeeded reports whether a counts toward successful analyses
func (h *Heuristic) Succeeded(a models.VideoAnalysis) bool {
	return a.Succeeded()
}
