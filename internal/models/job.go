package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the current state of an analysis job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Analyzer names the per-video strategy a job runs with
type Analyzer string

const (
	AnalyzerHeuristic Analyzer = "heuristic"
	AnalyzerLLM       Analyzer = "llm"
)

// ParseAnalyzer maps user input to an Analyzer, heuristic by default
func ParseAnalyzer(s string) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(AnalyzerHeuristic):
		return AnalyzerHeuristic, nil
	case string(AnalyzerLLM):
		return AnalyzerLLM, nil
	}
	return "", fmt.Errorf("unknown analyzer %q (want heuristic or llm)", s)
}

// StringSlice is a custom type for storing string arrays in JSON
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("unsupported StringSlice source %T", value)
}

// Job is one asynchronous batch run. IDs are UUID strings.
type Job struct {
	ID                    string      `gorm:"primaryKey;size:36" json:"job_id"`
	Query                 string      `gorm:"not null" json:"query"`
	VideoCount            int         `json:"video_count"`
	Analyzer              Analyzer    `gorm:"size:20;default:'heuristic'" json:"analyzer"`
	Filters               string      `gorm:"type:text" json:"filters,omitempty"`
	Source                string      `gorm:"size:50" json:"source"` // api, scheduler, cli
	Status                JobStatus   `gorm:"size:20;index;default:'pending'" json:"status"`
	TotalProcessed        int         `json:"total_processed"`
	SuccessfulAnalyses    int         `json:"successful_analyses"`
	FailedAnalyses        int         `json:"failed_analyses"`
	ProcessingTimeSeconds float64     `json:"processing_time_seconds"`
	ErrorMessage          string      `gorm:"type:text" json:"error_message,omitempty"`
	VideoIDs              StringSlice `gorm:"type:json" json:"video_ids,omitempty"`
	CreatedAt             time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt           *time.Time  `json:"completed_at,omitempty"`
}

// Finished reports whether the job reached a terminal state
func (j *Job) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobResult is one row per (job, video)
type JobResult struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	JobID        string      `gorm:"size:36;index;not null" json:"job_id"`
	VideoID      string      `gorm:"size:64;not null" json:"video_id"`
	ChannelTitle string      `json:"channel_title"`
	VideoTitle   string      `json:"video_title"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Pros         string      `gorm:"type:text" json:"pros"`
	Cons         string      `gorm:"type:text" json:"cons"`
	Summary      string      `gorm:"type:text" json:"summary"` // next hot topic
	Keywords     StringSlice `gorm:"type:json" json:"keywords,omitempty"`
	CommentCount int         `json:"comment_count"`
	Positive     float64     `json:"positive"`
	Neutral      float64     `json:"neutral"`
	Negative     float64     `json:"negative"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

// Blank reports whether pros, cons and summary are all empty
func (r *JobResult) Blank() bool {
	return r.Pros == "" && r.Cons == "" && r.Summary == ""
}

// ResultFromAnalysis maps a structured analysis onto a result row
func ResultFromAnalysis(jobID string, a VideoAnalysis) *JobResult {
	return &JobResult{
		JobID:        jobID,
		VideoID:      a.VideoID,
		ChannelTitle: a.ChannelName,
		VideoTitle:   a.Title,
		ThumbnailURL: a.ThumbnailURL,
		Pros:         strings.Join(a.Pros, "\n"),
		Cons:         strings.Join(a.Cons, "\n"),
		Summary:      strings.Join(a.NextTopicIdeas, "\n"),
		Keywords:     StringSlice(a.TopKeywords),
		CommentCount: a.CommentCount,
		Positive:     a.SentimentSummary.Positive,
		Neutral:      a.SentimentSummary.Neutral,
		Negative:     a.SentimentSummary.Negative,
	}
}

// ResultFromLLM maps a language-model summary onto a result row
func ResultFromLLM(jobID string, a LLMAnalysis) *JobResult {
	return &JobResult{
		JobID:        jobID,
		VideoID:      a.VideoID,
		ChannelTitle: a.ChannelTitle,
		VideoTitle:   a.VideoTitle,
		ThumbnailURL: a.ThumbnailURL,
		Pros:         a.Pros,
		Cons:         a.Cons,
		Summary:      a.NextHotTopic,
		CommentCount: a.CommentsFetched,
	}
}
