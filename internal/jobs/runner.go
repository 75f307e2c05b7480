package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comment-insights/internal/batch"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/source"
	"github.com/comment-insights/internal/storage"
	"github.com/comment-insights/pkg/logger"
)

// MaxVideoCount bounds how many videos one job may request
const MaxVideoCount = 50

var (
	// ErrNoVideos is recorded when a search returns nothing to analyze
	ErrNoVideos = errors.New("no videos found")
	// ErrAnalyzerUnavailable is returned for the llm analyzer when no model is configured
	ErrAnalyzerUnavailable = errors.New("analyzer not configured")
)

// Exporter receives the result rows of every completed job
type Exporter interface {
	Export(ctx context.Context, job *models.Job, rows []*models.JobResult) error
}

// Request describes one job. Videos, when set, are analyzed as-is and the
// query is only recorded.
type Request struct {
	Query      string
	VideoCount int
	Filters    *models.SearchFilters
	Analyzer   models.Analyzer
	Source     string // api, scheduler, cli
	Videos     []models.VideoDescriptor
}

// Validate checks the request before a job row is created
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query is required")
	}
	if len(r.Videos) == 0 && (r.VideoCount < 1 || r.VideoCount > MaxVideoCount) {
		return fmt.Errorf("video_count must be between 1 and %d", MaxVideoCount)
	}
	if r.Filters != nil {
		if err := r.Filters.Validate(); err != nil {
			return err
		}
	}
	if _, err := models.ParseAnalyzer(string(r.Analyzer)); err != nil {
		return err
	}
	return nil
}

// Runner creates jobs and runs their batches, persisting one result row
// per video.
type Runner struct {
	repo      storage.Repository
	searcher  source.Searcher
	heuristic *batch.Orchestrator[models.VideoAnalysis]
	llm       *batch.Orchestrator[models.LLMAnalysis]
	exporter  Exporter
	log       *logger.Logger

	newID func() string
	now   func() time.Time

	// background jobs run under ctx until Close
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options wires optional collaborators into a Runner
type Options struct {
	// LLM runs jobs with the llm analyzer; nil disables it
	LLM      *batch.Orchestrator[models.LLMAnalysis]
	Exporter Exporter
}

// NewRunner creates a job runner
func NewRunner(
	repo storage.Repository,
	searcher source.Searcher,
	heuristic *batch.Orchestrator[models.VideoAnalysis],
	opts Options,
	log *logger.Logger,
) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		repo:      repo,
		searcher:  searcher,
		heuristic: heuristic,
		llm:       opts.LLM,
		exporter:  opts.Exporter,
		log:       log.WithComponent("jobs"),
		newID:     uuid.NewString,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Submit records a pending job and runs it in the background. The returned
// job is the pending row.
func (r *Runner) Submit(ctx context.Context, req Request) (*models.Job, error) {
	job, err := r.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Execute(r.ctx, job.ID, req); err != nil {
			r.log.WithJobID(job.ID).Error().Err(err).Msg("Job failed")
		}
	}()

	return job, nil
}

// Create validates req and stores a pending job row
func (r *Runner) Create(ctx context.Context, req Request) (*models.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	analyzer, _ := models.ParseAnalyzer(string(req.Analyzer))
	if analyzer == models.AnalyzerLLM && r.llm == nil {
		return nil, fmt.Errorf("%s: %w", analyzer, ErrAnalyzerUnavailable)
	}

	job := &models.Job{
		ID:         r.newID(),
		Query:      req.Query,
		VideoCount: req.VideoCount,
		Analyzer:   analyzer,
		Source:     req.Source,
		Status:     models.JobStatusPending,
	}
	if len(req.Videos) > 0 {
		job.VideoCount = len(req.Videos)
	}
	if req.Filters != nil {
		raw, err := json.Marshal(req.Filters)
		if err != nil {
			return nil, fmt.Errorf("encode filters: %w", err)
		}
		job.Filters = string(raw)
	}

	if err := r.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	r.log.Info().
		Str("job_id", job.ID).
		Str("query", job.Query).
		Str("analyzer", string(job.Analyzer)).
		Int("video_count", job.VideoCount).
		Msg("Job created")

	return job, nil
}

// Run creates a job and executes it synchronously
func (r *Runner) Run(ctx context.Context, req Request) (*models.Job, error) {
	job, err := r.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	runErr := r.Execute(ctx, job.ID, req)

	final, err := r.repo.GetJob(context.WithoutCancel(ctx), job.ID)
	if err != nil {
		return nil, err
	}
	return final, runErr
}

// Execute runs an already created job to a terminal state. The error
// reports why the job failed; the row is updated either way.
func (r *Runner) Execute(ctx context.Context, jobID string, req Request) error {
	log := r.log.WithJobID(jobID)

	job, err := r.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = models.JobStatusRunning
	if err := r.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	log.Info().Msg("Job started")

	videos := req.Videos
	if len(videos) == 0 {
		videos, err = r.searcher.SearchVideos(ctx, req.Query, req.VideoCount, req.Filters)
		if err != nil {
			return r.finish(ctx, job, nil, 0, fmt.Errorf("search: %w", err))
		}
	}
	if len(videos) == 0 {
		return r.finish(ctx, job, nil, 0, ErrNoVideos)
	}

	job.VideoIDs = make(models.StringSlice, len(videos))
	for i, v := range videos {
		job.VideoIDs[i] = v.VideoID
	}

	var (
		rows    []*models.JobResult
		counts  batchCounts
		runErr  error
		elapsed float64
	)
	switch job.Analyzer {
	case models.AnalyzerLLM:
		if r.llm == nil {
			return r.finish(ctx, job, nil, 0, ErrAnalyzerUnavailable)
		}
		resp, err := r.llm.Run(ctx, videos, progressLogger(log))
		runErr = err
		if resp != nil {
			counts, elapsed = countsOf(resp), resp.ProcessingTimeSeconds
			for _, v := range resp.Videos {
				rows = append(rows, models.ResultFromLLM(job.ID, v))
			}
		}
	default:
		resp, err := r.heuristic.Run(ctx, videos, progressLogger(log))
		runErr = err
		if resp != nil {
			counts, elapsed = countsOf(resp), resp.ProcessingTimeSeconds
			for _, v := range resp.Videos {
				rows = append(rows, models.ResultFromAnalysis(job.ID, v))
			}
		}
	}

	job.TotalProcessed = counts.total
	job.SuccessfulAnalyses = counts.successful
	job.FailedAnalyses = counts.failed

	return r.finish(ctx, job, rows, elapsed, runErr)
}

// finish persists rows and moves the job to completed or failed
func (r *Runner) finish(ctx context.Context, job *models.Job, rows []*models.JobResult, elapsed float64, runErr error) error {
	log := r.log.WithJobID(job.ID)
	// persist even when the run was cancelled
	ctx = context.WithoutCancel(ctx)

	for _, row := range rows {
		if row.Blank() {
			log.Warn().Str("video_id", row.VideoID).Msg("Result row has no pros, cons or summary")
		}
	}
	if err := r.repo.SaveResults(ctx, rows); err != nil {
		log.Error().Err(err).Msg("Failed to save results")
		if runErr == nil {
			runErr = fmt.Errorf("save results: %w", err)
		}
	}

	now := r.now()
	job.ProcessingTimeSeconds = elapsed
	job.CompletedAt = &now
	if runErr != nil {
		job.Status = models.JobStatusFailed
		job.ErrorMessage = runErr.Error()
	} else {
		job.Status = models.JobStatusCompleted
	}

	if err := r.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	if runErr != nil {
		log.Warn().Err(runErr).Int("rows", len(rows)).Msg("Job failed")
		return runErr
	}

	log.Info().
		Int("total_processed", job.TotalProcessed).
		Int("successful", job.SuccessfulAnalyses).
		Int("failed", job.FailedAnalyses).
		Float64("seconds", job.ProcessingTimeSeconds).
		Msg("Job completed")

	if r.exporter != nil && len(rows) > 0 {
		if err := r.exporter.Export(ctx, job, rows); err != nil {
			log.Warn().Err(err).Msg("Failed to export results")
		}
	}
	return nil
}

// Get returns a job with its result rows
func (r *Runner) Get(ctx context.Context, id string) (*models.Job, []*models.JobResult, error) {
	job, err := r.repo.GetJob(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.repo.ListResults(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list results: %w", err)
	}
	return job, rows, nil
}

// List returns jobs newest first
func (r *Runner) List(ctx context.Context, filter storage.JobFilter) ([]*models.Job, error) {
	return r.repo.ListJobs(ctx, filter)
}

// Wait blocks until every submitted job has finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels running background jobs and waits for them
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

type batchCounts struct {
	total, successful, failed int
}

func countsOf[R any](resp *models.BatchResponse[R]) batchCounts {
	return batchCounts{
		total:      resp.TotalProcessed,
		successful: resp.SuccessfulAnalyses,
		failed:     resp.FailedAnalyses,
	}
}

func progressLogger(log *logger.Logger) batch.ProgressSink {
	return func(s models.BatchProcessingStatus) {
		ev := log.Debug()
		if s.Status == models.ProgressError {
			ev = log.Warn().Str("error", s.ErrorMessage)
		}
		ev.Int("current", s.CurrentVideo).
			Int("total", s.TotalVideos).
			Str("video_id", s.VideoID).
			Str("status", string(s.Status)).
			Msg("Batch progress")
	}
}
