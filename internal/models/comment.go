package models

// Sentiment is the polarity label assigned to a comment
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the three known labels
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Comment is a top-level viewer comment.
//
// Text, Author and LikeCount are always set by the fetcher. ReplyCount and
// PublishedAt are optional and left zero when the upstream omits them.
// Sentiment is empty until the comment has been classified.
type Comment struct {
	Text        string    `json:"text"`
	Sentiment   Sentiment `json:"sentiment,omitempty"`
	Author      string    `json:"author"`
	LikeCount   int64     `json:"likeCount"`
	ReplyCount  int64     `json:"replyCount,omitempty"`
	PublishedAt string    `json:"publishedAt,omitempty"`
}

// Classified returns a copy of the comment carrying the given label
func (c Comment) Classified(s Sentiment) Comment {
	c.Sentiment = s
	return c
}

// Texts extracts comment bodies in order
func Texts(comments []Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.Text
	}
	return out
}

// VideoDescriptor identifies a video handed to the pipeline.
// VideoID is required; everything else is display metadata.
type VideoDescriptor struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ChannelName  string `json:"channelName"`
	ThumbnailURL string `json:"thumbnailUrl"`
	PublishedAt  string `json:"publishedAt"`
	ViewCount    int64  `json:"viewCount"`
	Duration     string `json:"duration,omitempty"`
}

// WatchURL returns the public watch page for the video
func (v VideoDescriptor) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}
