package llm

import (
	"context"

	"github.com/comment-insights/internal/models"
)

// Strategy plugs the fallback chain into the batch orchestrator
type Strategy struct {
	chain *Chain
}

// NewStrategy creates the language-model per-video analyzer
func NewStrategy(chain *Chain) *Strategy {
	return &Strategy{chain: chain}
}

// Analyze summarizes the comment texts. Chain exhaustion is not an error;
// only cancellation is reported.
func (s *Strategy) Analyze(ctx context.Context, video models.VideoDescriptor, comments []models.Comment) (models.LLMAnalysis, error) {
	res := s.chain.Summarize(ctx, video, models.Texts(comments))
	if err := ctx.Err(); err != nil {
		return res.Value, err
	}
	return res.Value, nil
}

func (s *Strategy) Empty(video models.VideoDescriptor) models.LLMAnalysis {
	rec := models.NewLLMAnalysis(video)
	rec.Reason = ReasonNoComments
	return rec
}

func (s *Strategy) Failed(video models.VideoDescriptor, err error) models.LLMAnalysis {
	if video.VideoID == "" {
		video.VideoID = models.UnknownVideoID
	}
	rec := models.NewLLMAnalysis(video)
	rec.Reason = "error: " + err.Error()
	return rec
}

// Succeeded counts a video when a summary was produced
func (s *Strategy) Succeeded(rec models.LLMAnalysis) bool {
	return !rec.Empty()
}
