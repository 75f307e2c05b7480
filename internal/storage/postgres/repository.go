package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/storage"
)

const (
	connectTimeout  = 5 * time.Second
	maxIdleConns    = 5
	maxOpenConns    = 20
	connMaxLifetime = 30 * time.Minute
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var jobColumns = []string{
	"id", "query", "video_count", "analyzer", "filters", "source", "status",
	"total_processed", "successful_analyses", "failed_analyses", "processing_time_seconds",
	"error_message", "video_ids", "created_at", "updated_at", "completed_at",
}

var resultColumns = []string{
	"job_id", "video_id", "channel_title", "video_title", "thumbnail_url",
	"pros", "cons", "summary", "keywords", "comment_count",
	"positive", "neutral", "negative", "created_at",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id VARCHAR(36) PRIMARY KEY,
		query TEXT NOT NULL,
		video_count INTEGER NOT NULL DEFAULT 0,
		analyzer VARCHAR(20) NOT NULL DEFAULT 'heuristic',
		filters TEXT NOT NULL DEFAULT '',
		source VARCHAR(50) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		total_processed INTEGER NOT NULL DEFAULT 0,
		successful_analyses INTEGER NOT NULL DEFAULT 0,
		failed_analyses INTEGER NOT NULL DEFAULT 0,
		processing_time_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		video_ids JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at)`,
	`CREATE TABLE IF NOT EXISTS job_results (
		id BIGSERIAL PRIMARY KEY,
		job_id VARCHAR(36) NOT NULL REFERENCES jobs (id) ON DELETE CASCADE,
		video_id VARCHAR(64) NOT NULL,
		channel_title TEXT NOT NULL DEFAULT '',
		video_title TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		pros TEXT NOT NULL DEFAULT '',
		cons TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		keywords JSONB NOT NULL DEFAULT '[]',
		comment_count INTEGER NOT NULL DEFAULT 0,
		positive DOUBLE PRECISION NOT NULL DEFAULT 0,
		neutral DOUBLE PRECISION NOT NULL DEFAULT 0,
		negative DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_results_job_id ON job_results (job_id)`,
}

// Repository implements storage.Repository on PostgreSQL
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.Repository = (*Repository)(nil)

// New opens a connection pool for dsn and verifies it with a ping
func New(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxIdleConns(maxIdleConns)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", wrapPQ(err))
	}

	return &Repository{db: db, now: time.Now}, nil
}

// Migrate creates the tables when missing
func (r *Repository) Migrate() error {
	for _, stmt := range schema {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", wrapPQ(err))
		}
	}
	return nil
}

// Close closes the connection pool
func (r *Repository) Close() error {
	return r.db.Close()
}

// Job operations

func (r *Repository) CreateJob(ctx context.Context, job *models.Job) error {
	now := r.now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	if job.Analyzer == "" {
		job.Analyzer = models.AnalyzerHeuristic
	}

	query, args, err := psql.Insert("jobs").
		Columns(jobColumns...).
		Values(jobValues(job)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert job: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert job: %w", wrapPQ(err))
	}
	return nil
}

func (r *Repository) GetJob(ctx context.Context, id string) (*models.Job, error) {
	query, args, err := psql.Select(jobColumns...).
		From("jobs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select job: %w", err)
	}

	job, err := scanJob(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", wrapPQ(err))
	}
	return job, nil
}

func (r *Repository) ListJobs(ctx context.Context, filter storage.JobFilter) ([]*models.Job, error) {
	query, args, err := listJobsQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list jobs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", wrapPQ(err))
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return jobs, nil
}

func (r *Repository) UpdateJob(ctx context.Context, job *models.Job) error {
	job.UpdatedAt = r.now().UTC()

	query, args, err := updateJobQuery(job).ToSql()
	if err != nil {
		return fmt.Errorf("build update job: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job: %w", wrapPQ(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", job.ID, storage.ErrNotFound)
	}
	return nil
}

// Result operations

func (r *Repository) SaveResults(ctx context.Context, results []*models.JobResult) error {
	if len(results) == 0 {
		return nil
	}

	now := r.now().UTC()
	insert := psql.Insert("job_results").Columns(resultColumns...).Suffix("RETURNING id")
	for _, res := range results {
		if res.CreatedAt.IsZero() {
			res.CreatedAt = now
		}
		insert = insert.Values(resultValues(res)...)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert results: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", wrapPQ(err))
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert results: %w", wrapPQ(err))
	}
	i := 0
	for rows.Next() {
		if i < len(results) {
			if err := rows.Scan(&results[i].ID); err != nil {
				rows.Close()
				return fmt.Errorf("scan result id: %w", err)
			}
		}
		i++
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("insert results: %w", wrapPQ(err))
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", wrapPQ(err))
	}
	return nil
}

func (r *Repository) ListResults(ctx context.Context, jobID string) ([]*models.JobResult, error) {
	query, args, err := psql.Select(append([]string{"id"}, resultColumns...)...).
		From("job_results").
		Where(sq.Eq{"job_id": jobID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list results: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", wrapPQ(err))
	}
	defer rows.Close()

	var results []*models.JobResult
	for rows.Next() {
		var res models.JobResult
		if err := rows.Scan(
			&res.ID, &res.JobID, &res.VideoID, &res.ChannelTitle, &res.VideoTitle, &res.ThumbnailURL,
			&res.Pros, &res.Cons, &res.Summary, &res.Keywords, &res.CommentCount,
			&res.Positive, &res.Neutral, &res.Negative, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return results, nil
}

func listJobsQuery(filter storage.JobFilter) sq.SelectBuilder {
	q := psql.Select(jobColumns...).From("jobs")
	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Source != nil {
		q = q.Where(sq.Eq{"source": *filter.Source})
	}
	q = q.OrderBy("created_at DESC", "id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

func updateJobQuery(job *models.Job) sq.UpdateBuilder {
	return psql.Update("jobs").
		SetMap(map[string]interface{}{
			"query":                   job.Query,
			"video_count":             job.VideoCount,
			"analyzer":                string(job.Analyzer),
			"filters":                 job.Filters,
			"source":                  job.Source,
			"status":                  string(job.Status),
			"total_processed":         job.TotalProcessed,
			"successful_analyses":     job.SuccessfulAnalyses,
			"failed_analyses":         job.FailedAnalyses,
			"processing_time_seconds": job.ProcessingTimeSeconds,
			"error_message":           job.ErrorMessage,
			"video_ids":               job.VideoIDs,
			"updated_at":              job.UpdatedAt,
			"completed_at":            job.CompletedAt,
		}).
		Where(sq.Eq{"id": job.ID})
}

func jobValues(job *models.Job) []interface{} {
	return []interface{}{
		job.ID, job.Query, job.VideoCount, string(job.Analyzer), job.Filters, job.Source, string(job.Status),
		job.TotalProcessed, job.SuccessfulAnalyses, job.FailedAnalyses, job.ProcessingTimeSeconds,
		job.ErrorMessage, job.VideoIDs, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	}
}

func resultValues(res *models.JobResult) []interface{} {
	return []interface{}{
		res.JobID, res.VideoID, res.ChannelTitle, res.VideoTitle, res.ThumbnailURL,
		res.Pros, res.Cons, res.Summary, res.Keywords, res.CommentCount,
		res.Positive, res.Neutral, res.Negative, res.CreatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var analyzer, status string
	err := row.Scan(
		&job.ID, &job.Query, &job.VideoCount, &analyzer, &job.Filters, &job.Source, &status,
		&job.TotalProcessed, &job.SuccessfulAnalyses, &job.FailedAnalyses, &job.ProcessingTimeSeconds,
		&job.ErrorMessage, &job.VideoIDs, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Analyzer = models.Analyzer(analyzer)
	job.Status = models.JobStatus(status)
	return &job, nil
}

// wrapPQ adds the SQLSTATE code to server errors
func wrapPQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (SQLSTATE %s): %w", pqErr.Message, pqErr.Code, err)
	}
	return err
}
