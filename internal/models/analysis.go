package models

// Caps applied to every VideoAnalysis
const (
	MaxKeywords   = 10
	MaxPros       = 5
	MaxCons       = 5
	MaxNextTopics = 4
)

// Placeholders used when an error result has no identity to copy
const (
	UnknownVideoTitle   = "Unknown Video"
	UnknownChannelTitle = "Unknown Channel"
	UnknownVideoID      = "unknown"
)

// SentimentSummary is the share of each label over a video's comments.
// The three fractions sum to 1 (3 decimal places).
type SentimentSummary struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// NeutralSummary is the summary of an empty comment set
func NeutralSummary() SentimentSummary {
	return SentimentSummary{Positive: 0, Neutral: 1, Negative: 0}
}

// AnalysisVariant tells which terminal state produced a VideoAnalysis
type AnalysisVariant string

const (
	VariantFull  AnalysisVariant = "full"
	VariantEmpty AnalysisVariant = "empty"
	VariantError AnalysisVariant = "error"
)

// VideoAnalysis is the structured analysis of one video's comments
type VideoAnalysis struct {
	VideoID          string           `json:"videoId"`
	Title            string           `json:"title"`
	ChannelName      string           `json:"channelName"`
	ThumbnailURL     string           `json:"thumbnailUrl"`
	PublishedAt      string           `json:"publishedAt"`
	ViewCount        int64            `json:"viewCount"`
	CommentCount     int              `json:"commentCount"`
	SentimentSummary SentimentSummary `json:"sentimentSummary"`
	TopKeywords      []string         `json:"topKeywords"`
	Pros             []string         `json:"pros"`
	Cons             []string         `json:"cons"`
	NextTopicIdeas   []string         `json:"nextTopicIdeas"`
	Comments         []Comment        `json:"comments"`
	Variant          AnalysisVariant  `json:"variant"`
}

func newAnalysis(v VideoDescriptor, variant AnalysisVariant) VideoAnalysis {
	return VideoAnalysis{
		VideoID:          v.VideoID,
		Title:            v.Title,
		ChannelName:      v.ChannelName,
		ThumbnailURL:     v.ThumbnailURL,
		PublishedAt:      v.PublishedAt,
		ViewCount:        v.ViewCount,
		SentimentSummary: NeutralSummary(),
		TopKeywords:      []string{},
		Pros:             []string{},
		Cons:             []string{},
		NextTopicIdeas:   []string{},
		Comments:         []Comment{},
		Variant:          variant,
	}
}

// NewFullAnalysis returns a full-variant analysis carrying only identity fields;
// the analyzer fills in the rest.
func NewFullAnalysis(v VideoDescriptor) VideoAnalysis {
	return newAnalysis(v, VariantFull)
}

// NewEmptyAnalysis is the result for a video with zero fetched comments
func NewEmptyAnalysis(v VideoDescriptor) VideoAnalysis {
	return newAnalysis(v, VariantEmpty)
}

// NewErrorAnalysis is the placeholder for a video whose processing failed.
// The only keyword carries the first 50 characters of the error message.
func NewErrorAnalysis(v VideoDescriptor, message string) VideoAnalysis {
	if v.VideoID == "" {
		v.VideoID = UnknownVideoID
	}
	if v.Title == "" {
		v.Title = UnknownVideoTitle
	}
	if v.ChannelName == "" {
		v.ChannelName = UnknownChannelTitle
	}
	a := newAnalysis(v, VariantError)
	a.TopKeywords = []string{"error: " + truncateRunes(message, 50)}
	return a
}

// Succeeded reports whether the analysis counts as successful in batch totals:
// it has comments or at least one keyword.
func (a VideoAnalysis) Succeeded() bool {
	return a.CommentCount > 0 || len(a.TopKeywords) > 0
}

// LLMAnalysis is the free-text summary produced by the language-model path.
// Pros, Cons and NextHotTopic are newline-joined bullet items.
type LLMAnalysis struct {
	VideoID           string `json:"video_id"`
	VideoTitle        string `json:"video_title"`
	ChannelTitle      string `json:"channelTitle"`
	ThumbnailURL      string `json:"thumbnail_url"`
	PublishTime       string `json:"publishTime"`
	Pros              string `json:"pros"`
	Cons              string `json:"cons"`
	NextHotTopic      string `json:"next_hot_topic"`
	Reason            string `json:"reason,omitempty"`
	Model             string `json:"model,omitempty"`
	CommentsFetched   int    `json:"comments_fetched"`
	CommentsSanitized int    `json:"comments_sanitized"`
}

// NewLLMAnalysis returns an LLM record with identity fields copied from v
func NewLLMAnalysis(v VideoDescriptor) LLMAnalysis {
	return LLMAnalysis{
		VideoID:      v.VideoID,
		VideoTitle:   v.Title,
		ChannelTitle: v.ChannelName,
		ThumbnailURL: v.ThumbnailURL,
		PublishTime:  v.PublishedAt,
	}
}

// Empty reports whether all three summary sections are blank
func (a LLMAnalysis) Empty() bool {
	return a.Pros == "" && a.Cons == "" && a.NextHotTopic == ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
