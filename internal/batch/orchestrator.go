package batch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"sync/atomic"
	"time"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

// DefaultMaxComments is how many comments are fetched per video
const DefaultMaxComments = 100

// ErrStopped is returned when the progress consumer stops the batch
var ErrStopped = errors.New("batch stopped by consumer")

// CommentFetcher retrieves top-level comments for one video
type CommentFetcher interface {
	FetchComments(ctx context.Context, videoID string, max int) ([]models.Comment, error)
}

// Analyzer is the per-video strategy plugged into the orchestrator
type Analyzer[R any] interface {
	// Analyze turns a non-empty comment set into a result
	Analyze(ctx context.Context, video models.VideoDescriptor, comments []models.Comment) (R, error)
	// Empty is the result for a video without comments
	Empty(video models.VideoDescriptor) R
	// Failed is the placeholder for a video whose processing failed
	Failed(video models.VideoDescriptor, err error) R
	// Succeeded reports whether a result counts as a successful analysis
	Succeeded(result R) bool
}

// ProgressSink receives progress records. It must not block for long.
type ProgressSink func(models.BatchProcessingStatus)

// Event is one element of a streamed batch: a progress record, or the final
// aggregate as the last element. Err is set when the batch was cut short.
type Event[R any] struct {
	Progress *models.BatchProcessingStatus
	Final    *models.BatchResponse[R]
	Err      error
}

// IsFinal reports whether e terminates the stream
func (e Event[R]) IsFinal() bool {
	return e.Final != nil || e.Err != nil
}

// Options tunes an Orchestrator
type Options struct {
	Pacer       Pacer
	MaxComments int
}

// Orchestrator runs videos strictly one after another through an Analyzer.
// It holds no state between runs.
type Orchestrator[R any] struct {
	fetcher     CommentFetcher
	analyzer    Analyzer[R]
	pacer       Pacer
	maxComments int
	log         *logger.Logger
}

// New creates an orchestrator. A nil pacer defaults to a one second interval.
func New[R any](fetcher CommentFetcher, analyzer Analyzer[R], opts Options, log *logger.Logger) *Orchestrator[R] {
	if opts.Pacer == nil {
		opts.Pacer = FixedInterval(time.Second)
	}
	if opts.MaxComments <= 0 {
		opts.MaxComments = DefaultMaxComments
	}
	return &Orchestrator[R]{
		fetcher:     fetcher,
		analyzer:    analyzer,
		pacer:       opts.Pacer,
		maxComments: opts.MaxComments,
		log:         log.WithComponent("batch"),
	}
}

// Run processes every video and returns the aggregate. Per-video failures
// never abort the batch; only cancellation of ctx does, in which case the
// partial aggregate is returned together with the context error.
func (o *Orchestrator[R]) Run(ctx context.Context, videos []models.VideoDescriptor, sink ProgressSink) (*models.BatchResponse[R], error) {
	return o.run(ctx, videos, func(s models.BatchProcessingStatus) bool {
		if sink != nil {
			sink(s)
		}
		return true
	})
}

// Stream returns a lazy, single-use sequence of progress events followed by
// the final aggregate. Breaking out of the range loop stops the batch before
// the next step.
func (o *Orchestrator[R]) Stream(ctx context.Context, videos []models.VideoDescriptor) iter.Seq[Event[R]] {
	var used atomic.Bool
	return func(yield func(Event[R]) bool) {
		if used.Swap(true) {
			return
		}

		stopped := false
		resp, err := o.run(ctx, videos, func(s models.BatchProcessingStatus) bool {
			if !yield(Event[R]{Progress: &s}) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
		}
		if err != nil {
			yield(Event[R]{Err: err})
			return
		}
		yield(Event[R]{Final: resp})
	}
}

func (o *Orchestrator[R]) run(ctx context.Context, videos []models.VideoDescriptor, emit func(models.BatchProcessingStatus) bool) (*models.BatchResponse[R], error) {
	start := time.Now()
	resp := &models.BatchResponse[R]{Videos: make([]R, 0, len(videos))}

	o.log.Info().Int("videos", len(videos)).Msg("Starting batch")

	finish := func() *models.BatchResponse[R] {
		resp.TotalProcessed = len(resp.Videos)
		resp.FailedAnalyses = resp.TotalProcessed - resp.SuccessfulAnalyses
		resp.ProcessingTimeSeconds = math.Round(time.Since(start).Seconds()*100) / 100
		return resp
	}

	for i, video := range videos {
		result, err := o.processVideo(ctx, i+1, len(videos), video, emit)
		if err != nil {
			o.log.Warn().Err(err).Int("processed", len(resp.Videos)).Msg("Batch interrupted")
			return finish(), err
		}

		resp.Videos = append(resp.Videos, result)
		if o.analyzer.Succeeded(result) {
			resp.SuccessfulAnalyses++
		}

		if i < len(videos)-1 {
			if err := o.pacer.Wait(ctx); err != nil {
				return finish(), err
			}
		}
	}

	finish()
	o.log.Info().
		Int("total", resp.TotalProcessed).
		Int("successful", resp.SuccessfulAnalyses).
		Int("failed", resp.FailedAnalyses).
		Float64("seconds", resp.ProcessingTimeSeconds).
		Msg("Batch completed")

	return resp, nil
}

// processVideo runs one video through fetch, analyze and emit. The returned
// error is only ever a cancellation or a consumer stop.
func (o *Orchestrator[R]) processVideo(
	ctx context.Context,
	current, total int,
	video models.VideoDescriptor,
	emit func(models.BatchProcessingStatus) bool,
) (result R, err error) {
	log := o.log.WithVideoID(video.VideoID)
	status := func(state models.ProgressState) models.BatchProcessingStatus {
		return models.BatchProcessingStatus{
			CurrentVideo: current,
			TotalVideos:  total,
			VideoID:      video.VideoID,
			VideoTitle:   video.Title,
			Status:       state,
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if !emit(status(models.ProgressFetching)) {
		return result, ErrStopped
	}

	comments, fetchErr := o.fetch(ctx, video.VideoID)
	if pe := (panicError{}); errors.As(fetchErr, &pe) {
		log.Error().Err(fetchErr).Msg("Comment fetch panicked")
		return o.fail(video, fetchErr, status(models.ProgressError), emit)
	}
	if fetchErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		log.Warn().Err(fetchErr).Msg("Comment fetch failed, treating as no comments")
		comments = nil
	}

	fetched := len(comments)
	analyzing := status(models.ProgressAnalyzing)
	analyzing.CommentsFetched = &fetched
	if !emit(analyzing) {
		return result, ErrStopped
	}

	if fetched == 0 {
		result = o.analyzer.Empty(video)
	} else {
		var analyzeErr error
		result, analyzeErr = o.analyze(ctx, video, comments)
		if analyzeErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			log.Error().Err(analyzeErr).Msg("Video analysis failed")
			return o.fail(video, analyzeErr, status(models.ProgressError), emit)
		}
	}

	if !emit(status(models.ProgressCompleted)) {
		return result, ErrStopped
	}
	log.Debug().Int("comments", fetched).Msg("Video processed")
	return result, nil
}

// panicError is a panic raised by the fetcher or the analyzer
type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = panicError{r}
	}
}

// fetch and analyze turn panics into errors. Progress emission stays outside
// so that a panic in the consumer reaches the consumer.
func (o *Orchestrator[R]) fetch(ctx context.Context, videoID string) (comments []models.Comment, err error) {
	defer recoverInto(&err)
	return o.fetcher.FetchComments(ctx, videoID, o.maxComments)
}

func (o *Orchestrator[R]) analyze(ctx context.Context, video models.VideoDescriptor, comments []models.Comment) (result R, err error) {
	defer recoverInto(&err)
	return o.analyzer.Analyze(ctx, video, comments)
}

func (o *Orchestrator[R]) fail(
	video models.VideoDescriptor,
	cause error,
	st models.BatchProcessingStatus,
	emit func(models.BatchProcessingStatus) bool,
) (R, error) {
	result := o.analyzer.Failed(video, cause)
	st.ErrorMessage = cause.Error()
	if !emit(st) {
		return result, ErrStopped
	}
	return result, nil
}
