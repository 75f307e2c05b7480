package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "nested", "jobs.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := repo.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	job := &models.Job{
		ID:         "6f1c1a52-0000-4000-8000-000000000001",
		Query:      "go tutorial",
		VideoCount: 3,
		Analyzer:   models.AnalyzerHeuristic,
		Source:     "api",
		Status:     models.JobStatusPending,
	}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	got, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Query != "go tutorial" || got.Status != models.JobStatusPending {
		t.Errorf("GetJob = %+v", got)
	}

	now := time.Now()
	got.Status = models.JobStatusCompleted
	got.TotalProcessed = 3
	got.SuccessfulAnalyses = 3
	got.VideoIDs = models.StringSlice{"a", "b", "c"}
	got.CompletedAt = &now
	if err := repo.UpdateJob(ctx, got); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	again, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob after update: %v", err)
	}
	if !again.Finished() || again.TotalProcessed != 3 {
		t.Errorf("job not updated: %+v", again)
	}
	if !reflect.DeepEqual([]string(again.VideoIDs), []string{"a", "b", "c"}) {
		t.Errorf("VideoIDs = %v", again.VideoIDs)
	}
	if again.CompletedAt == nil {
		t.Error("CompletedAt not persisted")
	}
}

func TestGetJobNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetJob(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetJob(missing) err = %v, want ErrNotFound", err)
	}

	err = repo.UpdateJob(context.Background(), &models.Job{ID: "missing", Query: "x"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateJob(missing) err = %v, want ErrNotFound", err)
	}
}

func TestListJobsFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		id     string
		status models.JobStatus
		source string
	}{
		{"job-1", models.JobStatusCompleted, "api"},
		{"job-2", models.JobStatusFailed, "scheduler"},
		{"job-3", models.JobStatusCompleted, "scheduler"},
	}
	for i, s := range seed {
		job := &models.Job{
			ID:        s.id,
			Query:     "q",
			Status:    s.status,
			Source:    s.source,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob %s: %v", s.id, err)
		}
	}

	all, err := repo.ListJobs(ctx, storage.DefaultJobFilter())
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if ids := jobIDs(all); !reflect.DeepEqual(ids, []string{"job-3", "job-2", "job-1"}) {
		t.Errorf("ListJobs order = %v, want newest first", ids)
	}

	completed := models.JobStatusCompleted
	got, err := repo.ListJobs(ctx, storage.JobFilter{Status: &completed})
	if err != nil {
		t.Fatalf("ListJobs(status): %v", err)
	}
	if ids := jobIDs(got); !reflect.DeepEqual(ids, []string{"job-3", "job-1"}) {
		t.Errorf("ListJobs(completed) = %v", ids)
	}

	scheduler := "scheduler"
	got, err = repo.ListJobs(ctx, storage.JobFilter{Source: &scheduler, Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs(source): %v", err)
	}
	if ids := jobIDs(got); !reflect.DeepEqual(ids, []string{"job-3"}) {
		t.Errorf("ListJobs(scheduler, limit 1) = %v", ids)
	}
}

func TestResults(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.CreateJob(ctx, &models.Job{ID: "job-r", Query: "q"}); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := repo.SaveResults(ctx, nil); err != nil {
		t.Fatalf("SaveResults(nil): %v", err)
	}

	rows := []*models.JobResult{
		{JobID: "job-r", VideoID: "v1", VideoTitle: "One", Pros: "clear", Keywords: models.StringSlice{"go"}},
		{JobID: "job-r", VideoID: "v2", VideoTitle: "Two", Summary: "generics next"},
	}
	if err := repo.SaveResults(ctx, rows); err != nil {
		t.Fatalf("SaveResults: %v", err)
	}

	got, err := repo.ListResults(ctx, "job-r")
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(got) != 2 || got[0].VideoID != "v1" || got[1].VideoID != "v2" {
		t.Fatalf("ListResults = %+v", got)
	}
	if !reflect.DeepEqual([]string(got[0].Keywords), []string{"go"}) {
		t.Errorf("Keywords = %v", got[0].Keywords)
	}
	if got[1].Summary != "generics next" {
		t.Errorf("Summary = %q", got[1].Summary)
	}

	none, err := repo.ListResults(ctx, "other")
	if err != nil || len(none) != 0 {
		t.Errorf("ListResults(other) = %v, %v", none, err)
	}
}

func jobIDs(jobs []*models.Job) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}
