package storage

import (
	"context"
	"errors"

	"github.com/comment-insights/internal/models"
)

// ErrNotFound is returned when a job does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the interface for job persistence
type Repository interface {
	// Job operations
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error

	// Result rows, one per (job, video)
	SaveResults(ctx context.Context, results []*models.JobResult) error
	ListResults(ctx context.Context, jobID string) ([]*models.JobResult, error)

	// Maintenance
	Close() error
	Migrate() error
}

// JobFilter defines filtering options for jobs. Jobs are always listed
// newest first.
type JobFilter struct {
	Status *models.JobStatus
	Source *string
	Limit  int
	Offset int
}

// DefaultJobFilter returns a filter with sensible defaults
func DefaultJobFilter() JobFilter {
	return JobFilter{Limit: 50}
}
