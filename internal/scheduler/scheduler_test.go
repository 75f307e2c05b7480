package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/comment-insights/internal/jobs"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/source"
	"github.com/comment-insights/pkg/logger"
)

type fakeSource struct {
	name, kind string
	videos     []models.VideoDescriptor
	err        error
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Type() string { return f.kind }
func (f *fakeSource) Fetch(_ context.Context, limit int) ([]models.VideoDescriptor, error) {
	if len(f.videos) > limit {
		return f.videos[:limit], f.err
	}
	return f.videos, f.err
}

type recordingRunner struct {
	mu       sync.Mutex
	requests []jobs.Request
	started  chan struct{}
	release  chan struct{}
}

func (r *recordingRunner) Run(_ context.Context, req jobs.Request) (*models.Job, error) {
	if r.started != nil {
		r.started <- struct{}{}
		<-r.release
	}
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return &models.Job{ID: "job-1", Status: models.JobStatusCompleted, SuccessfulAnalyses: len(req.Videos)}, nil
}

func TestRunOnce(t *testing.T) {
	m := source.NewManager()
	m.Register(&fakeSource{name: "go", kind: "search", videos: []models.VideoDescriptor{
		{VideoID: "a"}, {VideoID: "b"}, {VideoID: "a"},
	}})
	m.Register(&fakeSource{name: "broken", kind: "feed", err: errors.New("feed down")})
	m.Register(&fakeSource{name: "quiet", kind: "feed"})

	runner := &recordingRunner{}
	s := New(m, runner, 10, models.AnalyzerHeuristic, logger.Nop())

	outcomes := s.RunOnce(context.Background())
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}

	if outcomes[0].Err != nil || outcomes[0].Job == nil {
		t.Errorf("search outcome = %+v", outcomes[0])
	}
	if outcomes[1].Err == nil {
		t.Error("fetch error should be reported")
	}
	if !errors.Is(outcomes[2].Err, jobs.ErrNoVideos) {
		t.Errorf("empty source err = %v", outcomes[2].Err)
	}

	if len(runner.requests) != 1 {
		t.Fatalf("runner called %d times, want 1", len(runner.requests))
	}
	req := runner.requests[0]
	if req.Query != "search:go" || req.Source != "scheduler" || req.Analyzer != models.AnalyzerHeuristic {
		t.Errorf("request = %+v", req)
	}
	if len(req.Videos) != 2 {
		t.Errorf("videos should be deduplicated, got %d", len(req.Videos))
	}
}

func TestRunOnceSkipsOverlap(t *testing.T) {
	m := source.NewManager()
	m.Register(&fakeSource{name: "go", kind: "search", videos: []models.VideoDescriptor{{VideoID: "a"}}})

	runner := &recordingRunner{started: make(chan struct{}), release: make(chan struct{})}
	s := New(m, runner, 5, models.AnalyzerHeuristic, logger.Nop())

	done := make(chan []Outcome)
	go func() { done <- s.RunOnce(context.Background()) }()

	<-runner.started
	if got := s.RunOnce(context.Background()); got != nil {
		t.Errorf("overlapping run should be skipped, got %v", got)
	}
	close(runner.release)

	if got := <-done; len(got) != 1 {
		t.Errorf("first run outcomes = %d", len(got))
	}
}

func TestNewClampsVideoCount(t *testing.T) {
	s := New(source.NewManager(), &recordingRunner{}, 500, models.AnalyzerHeuristic, logger.Nop())
	if s.videoCount != jobs.MaxVideoCount {
		t.Errorf("videoCount = %d", s.videoCount)
	}
	s = New(source.NewManager(), &recordingRunner{}, 0, models.AnalyzerHeuristic, logger.Nop())
	if s.videoCount != 5 {
		t.Errorf("default videoCount = %d", s.videoCount)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(source.NewManager(), &recordingRunner{}, 5, models.AnalyzerHeuristic, logger.Nop())
	if _, err := s.Start(context.Background(), "not a cron spec"); err == nil {
		t.Fatal("expected cron parse error")
	}

	c, err := s.Start(context.Background(), "@every 1h")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Stop()
}
