package analysis

import (
	"context"
	"reflect"
	"testing"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

var testVideo = models.VideoDescriptor{
	VideoID:     "abc123",
	Title:       "Go Concurrency",
	ChannelName: "Gopher Talks",
	ViewCount:   1000,
}

func testComments() []models.Comment {
	return []models.Comment{
		{Text: "This tutorial is amazing and very helpful!", LikeCount: 12},
		{Text: "The tutorial audio was terrible and confusing", LikeCount: 2},
		{Text: "Please make a video on generics next", LikeCount: 30, ReplyCount: 5},
		{Text: "This is a video about goroutines.", LikeCount: 1},
	}
}

func TestHeuristicAnalyze(t *testing.T) {
	h := NewHeuristic(logger.Nop())
	got, err := h.Analyze(context.Background(), testVideo, testComments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got.Variant != models.VariantFull {
		t.Errorf("Variant = %s, want full", got.Variant)
	}
	if got.VideoID != testVideo.VideoID || got.Title != testVideo.Title {
		t.Errorf("identity not copied: %+v", got)
	}
	if got.CommentCount != 4 {
		t.Errorf("CommentCount = %d, want 4", got.CommentCount)
	}
	want := models.SentimentSummary{Positive: 0.25, Neutral: 0.5, Negative: 0.25}
	if got.SentimentSummary != want {
		t.Errorf("SentimentSummary = %+v, want %+v", got.SentimentSummary, want)
	}
	if len(got.TopKeywords) > models.MaxKeywords {
		t.Errorf("too many keywords: %v", got.TopKeywords)
	}
	if !contains(got.TopKeywords, "tutorial") {
		t.Errorf("expected tutorial keyword in %v", got.TopKeywords)
	}
	if !contains(got.TopKeywords, TagHighEngagement) {
		t.Errorf("expected engagement tag in %v", got.TopKeywords)
	}
	if len(got.Comments) != 4 || got.Comments[0].Sentiment != models.SentimentPositive {
		t.Errorf("comments not labeled: %+v", got.Comments)
	}
	if len(got.NextTopicIdeas) != 1 || got.NextTopicIdeas[0] != "a video on generics next" {
		t.Errorf("NextTopicIdeas = %q", got.NextTopicIdeas)
	}
	if !got.Succeeded() {
		t.Error("expected analysis to count as successful")
	}
}

func TestHeuristicAnalyzeIdempotent(t *testing.T) {
	h := NewHeuristic(logger.Nop())
	first, _ := h.Analyze(context.Background(), testVideo, testComments())
	second, _ := h.Analyze(context.Background(), testVideo, testComments())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("analysis not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestHeuristicEmpty(t *testing.T) {
	h := NewHeuristic(logger.Nop())
	got, err := h.Analyze(context.Background(), testVideo, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Variant != models.VariantEmpty || got.CommentCount != 0 {
		t.Errorf("expected empty variant, got %+v", got)
	}
	if got.SentimentSummary != models.NeutralSummary() {
		t.Errorf("SentimentSummary = %+v", got.SentimentSummary)
	}
	if got.TopKeywords == nil || got.Pros == nil || got.Comments == nil {
		t.Error("empty analysis must carry empty, non-nil lists")
	}
	if h.Succeeded(got) {
		t.Error("empty analysis should not count as successful")
	}
}

func TestHeuristicCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHeuristic(logger.Nop()).Analyze(ctx, testVideo, testComments()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestHeuristicFailed(t *testing.T) {
	h := NewHeuristic(logger.Nop())
	got := h.Failed(models.VideoDescriptor{}, context.DeadlineExceeded)
	if got.Variant != models.VariantError || got.VideoID != models.UnknownVideoID {
		t.Errorf("unexpected error analysis: %+v", got)
	}
	if len(got.TopKeywords) != 1 || got.TopKeywords[0] != "error: context deadline exceeded" {
		t.Errorf("TopKeywords = %q", got.TopKeywords)
	}
}
