package analysis

import "github.com/comment-insights/internal/models"

// Engagement tags and their thresholds
const (
	TagHighEngagement   = "high engagement"
	TagActiveDiscussion = "active discussion"
	TagViralComments    = "viral comments"

	highEngagementAvgLikes  = 10
	activeDiscussionReplies = 2
	viralCommentLikes       = 50
	viralCommentMinCount    = 5
)

// Engagement holds like/reply statistics over a fetched comment set
type Engagement struct {
	AvgLikes      float64
	AvgReplies    float64
	ViralComments int
}

// MeasureEngagement computes engagement statistics. Zero comments yields
// zero statistics.
func MeasureEngagement(comments []models.Comment) Engagement {
	if len(comments) == 0 {
		return Engagement{}
	}

	var likes, replies int64
	var e Engagement
	for _, c := range comments {
		likes += c.LikeCount
		replies += c.ReplyCount
		if c.LikeCount > viralCommentLikes {
			e.ViralComments++
		}
	}
	e.AvgLikes = float64(likes) / float64(len(comments))
	e.AvgReplies = float64(replies) / float64(len(comments))
	return e
}

// Tags returns the engagement keywords earned by e, in fixed order
func (e Engagement) Tags() []string {
	var tags []string
	if e.AvgLikes > highEngagementAvgLikes {
		tags = append(tags, TagHighEngagement)
	}
	if e.AvgReplies > activeDiscussionReplies {
		tags = append(tags, TagActiveDiscussion)
	}
	if e.ViralComments > viralCommentMinCount {
		tags = append(tags, TagViralComments)
	}
	return tags
}

// MergeKeywords appends tags to keywords, dropping duplicates, and caps
// the result at models.MaxKeywords. When over the cap, tags take the tail
// slots and the lowest-ranked keywords are dropped.
func MergeKeywords(keywords, tags []string) []string {
	seen := make(map[string]bool, len(keywords)+len(tags))
	uniqueTags := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			uniqueTags = append(uniqueTags, t)
		}
	}
	if len(uniqueTags) > models.MaxKeywords {
		uniqueTags = uniqueTags[:models.MaxKeywords]
	}

	room := models.MaxKeywords - len(uniqueTags)
	merged := make([]string, 0, models.MaxKeywords)
	for _, k := range keywords {
		if len(merged) == room {
			break
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, k)
	}
	return append(merged, uniqueTags...)
}
