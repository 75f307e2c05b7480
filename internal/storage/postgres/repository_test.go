package postgres

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/lib/pq"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/storage"
)

func TestListJobsQuery(t *testing.T) {
	status := models.JobStatusCompleted
	source := "scheduler"

	query, args, err := listJobsQuery(storage.JobFilter{
		Status: &status,
		Source: &source,
		Limit:  10,
		Offset: 5,
	}).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	for _, part := range []string{
		"FROM jobs",
		"WHERE status = $1 AND source = $2",
		"ORDER BY created_at DESC, id ASC",
		"LIMIT 10",
		"OFFSET 5",
	} {
		if !strings.Contains(query, part) {
			t.Errorf("query %q missing %q", query, part)
		}
	}
	if !reflect.DeepEqual(args, []interface{}{"completed", "scheduler"}) {
		t.Errorf("args = %v", args)
	}
}

func TestListJobsQueryNoFilter(t *testing.T) {
	query, args, err := listJobsQuery(storage.JobFilter{}).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if strings.Contains(query, "WHERE") || strings.Contains(query, "LIMIT") {
		t.Errorf("unexpected clauses in %q", query)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestUpdateJobQuery(t *testing.T) {
	job := &models.Job{ID: "job-1", Query: "go", Status: models.JobStatusRunning}
	query, args, err := updateJobQuery(job).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	if !strings.HasPrefix(query, "UPDATE jobs SET ") {
		t.Errorf("query = %q", query)
	}
	if !strings.HasSuffix(query, "WHERE id = $15") {
		t.Errorf("query should filter on id last: %q", query)
	}
	if len(args) != 15 || args[14] != "job-1" {
		t.Errorf("args = %v", args)
	}
	if strings.Contains(query, "created_at") {
		t.Errorf("update must not touch created_at: %q", query)
	}
}

func TestColumnsMatchValues(t *testing.T) {
	if got := len(jobValues(&models.Job{})); got != len(jobColumns) {
		t.Errorf("jobValues has %d entries, jobColumns %d", got, len(jobColumns))
	}
	if got := len(resultValues(&models.JobResult{})); got != len(resultColumns) {
		t.Errorf("resultValues has %d entries, resultColumns %d", got, len(resultColumns))
	}
}

func TestWrapPQ(t *testing.T) {
	base := &pq.Error{Code: "23505", Message: "duplicate key value"}
	err := wrapPQ(base)
	if !strings.Contains(err.Error(), "SQLSTATE 23505") {
		t.Errorf("wrapPQ = %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to the pq error")
	}

	plain := errors.New("boom")
	if wrapPQ(plain) != plain {
		t.Error("non-pq errors pass through")
	}
}
