// Package scheduler runs recurring batches over the configured video sources.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/comment-insights/internal/jobs"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/source"
	"github.com/comment-insights/pkg/logger"
)

// JobRunner runs one job to completion
type JobRunner interface {
	Run(ctx context.Context, req jobs.Request) (*models.Job, error)
}

// Outcome is the result of one source in a scheduled run
type Outcome struct {
	Source string
	Job    *models.Job
	Err    error
}

// Scheduler fetches every source and records one job per source
type Scheduler struct {
	sources    *source.Manager
	runner     JobRunner
	videoCount int
	analyzer   models.Analyzer
	log        *logger.Logger

	// one run at a time; a tick that overlaps a running batch is skipped
	mu sync.Mutex
}

// New creates a scheduler
func New(sources *source.Manager, runner JobRunner, videoCount int, analyzer models.Analyzer, log *logger.Logger) *Scheduler {
	if videoCount <= 0 {
		videoCount = 5
	}
	if videoCount > jobs.MaxVideoCount {
		videoCount = jobs.MaxVideoCount
	}
	return &Scheduler{
		sources:    sources,
		runner:     runner,
		videoCount: videoCount,
		analyzer:   analyzer,
		log:        log.WithComponent("scheduler"),
	}
}

// RunOnce fetches all sources concurrently, then runs their jobs one after
// another. It returns nil when a previous run is still in progress.
func (s *Scheduler) RunOnce(ctx context.Context) []Outcome {
	if !s.mu.TryLock() {
		s.log.Warn().Msg("Previous scheduled run still in progress, skipping")
		return nil
	}
	defer s.mu.Unlock()

	start := time.Now()
	results := s.sources.FetchAll(ctx, s.videoCount)
	outcomes := make([]Outcome, 0, len(results))

	for _, r := range results {
		name := r.Source.Name()
		log := s.log.WithSource(r.Source.Type(), name)

		if r.Err != nil {
			log.Error().Err(r.Err).Msg("Source fetch failed")
			outcomes = append(outcomes, Outcome{Source: name, Err: r.Err})
			continue
		}
		if len(r.Videos) == 0 {
			log.Info().Msg("Source returned no videos")
			outcomes = append(outcomes, Outcome{Source: name, Err: jobs.ErrNoVideos})
			continue
		}

		job, err := s.runner.Run(ctx, jobs.Request{
			Query:    fmt.Sprintf("%s:%s", r.Source.Type(), name),
			Analyzer: s.analyzer,
			Source:   "scheduler",
			Videos:   r.Videos,
		})
		if err != nil {
			log.Error().Err(err).Msg("Scheduled job failed")
		} else {
			log.Info().
				Str("job_id", job.ID).
				Int("successful", job.SuccessfulAnalyses).
				Int("failed", job.FailedAnalyses).
				Msg("Scheduled job completed")
		}
		outcomes = append(outcomes, Outcome{Source: name, Job: job, Err: err})

		if ctx.Err() != nil {
			break
		}
	}

	s.log.Info().
		Int("sources", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Scheduled run finished")
	return outcomes
}

// Start registers RunOnce on spec and starts the cron loop. The returned
// cron must be stopped by the caller.
func (s *Scheduler) Start(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cronLogger{s.log}))
	if _, err := c.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("failed to schedule batch job: %w", err)
	}
	c.Start()
	s.log.Info().Str("cron", spec).Msg("Batch job scheduled")
	return c, nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
