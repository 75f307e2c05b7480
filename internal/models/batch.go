package models

// ProgressState is the per-video stage reported while a batch runs
type ProgressState string

const (
	ProgressFetching  ProgressState = "fetching_comments"
	ProgressAnalyzing ProgressState = "analyzing_comments"
	ProgressCompleted ProgressState = "completed"
	ProgressError     ProgressState = "error"
)

// BatchProcessingStatus is a transient progress record
type BatchProcessingStatus struct {
	CurrentVideo    int           `json:"current_video"`
	TotalVideos     int           `json:"total_videos"`
	VideoID         string        `json:"video_id"`
	VideoTitle      string        `json:"video_title"`
	Status          ProgressState `json:"status"`
	CommentsFetched *int          `json:"comments_fetched,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`
}

// BatchResponse aggregates one batch run over any per-video result type
type BatchResponse[R any] struct {
	Videos                []R     `json:"videos"`
	TotalProcessed        int     `json:"total_processed"`
	SuccessfulAnalyses    int     `json:"successful_analyses"`
	FailedAnalyses        int     `json:"failed_analyses"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// BatchAnalysisResponse is the batch result of the structured analyzer
type BatchAnalysisResponse = BatchResponse[VideoAnalysis]

// BatchSummaryResponse is the batch result of the language-model analyzer
type BatchSummaryResponse = BatchResponse[LLMAnalysis]
