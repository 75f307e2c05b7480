package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
	"github.com/comment-insights/pkg/ratelimit"
)

// MaxSearchResults is the YouTube search page limit
const MaxSearchResults = 50

// commentPageSize is the commentThreads.list page limit
const commentPageSize = 100

var (
	// ErrInvalidCredentials means the API key or token was rejected
	ErrInvalidCredentials = errors.New("invalid or expired YouTube API key")
	// ErrQuotaExceeded means the daily API quota is used up
	ErrQuotaExceeded = errors.New("YouTube API quota exceeded")
)

// Client wraps the YouTube Data API
type Client struct {
	service     *yt.Service
	timeout     time.Duration
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
	now         func() time.Time
	opts        []option.ClientOption
}

// NewClient creates a YouTube client. An OAuth access token takes precedence
// over the API key. Extra options are appended (tests set the endpoint).
func NewClient(ctx context.Context, cfg config.YouTubeConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger, opts ...option.ClientOption) (*Client, error) {
	var auth option.ClientOption
	if cfg.AccessToken != "" {
		auth = option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		}))
	} else {
		auth = option.WithAPIKey(cfg.APIKey)
	}

	service, err := yt.NewService(ctx, append([]option.ClientOption{auth}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		service:     service,
		timeout:     timeout,
		rateLimiter: limiter,
		log:         log.WithComponent("youtube"),
		now:         time.Now,
		opts:        opts,
	}, nil
}

// WithAPIKey returns a client using a caller-supplied API key that shares
// this client's limiter and settings.
func (c *Client) WithAPIKey(ctx context.Context, apiKey string) (*Client, error) {
	svc, err := yt.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, c.opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	clone := *c
	clone.service = svc
	return &clone, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.rateLimiter == nil {
		return nil
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterYouTube); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}
	return nil
}

// SearchVideos returns up to count videos matching query, with view counts
// and durations filled from a follow-up videos.list call.
func (c *Client) SearchVideos(ctx context.Context, query string, count int, filters *models.SearchFilters) ([]models.VideoDescriptor, error) {
	if count <= 0 || count > MaxSearchResults {
		return nil, fmt.Errorf("video count must be between 1 and %d", MaxSearchResults)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	call := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(count)).
		Order(filters.Order())

	if filters != nil {
		if after, ok := publishedAfter(filters.UploadDate, c.now()); ok {
			call = call.PublishedAfter(after)
		}
		if filters.Duration != "" {
			call = call.VideoDuration(filters.Duration)
		}
		if filters.Language != "" {
			call = call.RelevanceLanguage(filters.Language)
		}
		if filters.RegionCode != "" {
			call = call.RegionCode(filters.RegionCode)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "search videos")
	}

	videos := make([]models.VideoDescriptor, 0, len(resp.Items))
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videos = append(videos, models.VideoDescriptor{
			VideoID:      item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelName:  item.Snippet.ChannelTitle,
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
			PublishedAt:  item.Snippet.PublishedAt,
		})
		ids = append(ids, item.Id.VideoId)
	}

	details, err := c.videoDetails(ctx, ids)
	if err != nil {
		// metadata only, the search result is still usable
		c.log.Warn().Err(err).Msg("Failed to load video details")
	}
	for i := range videos {
		if d, ok := details[videos[i].VideoID]; ok {
			videos[i].ViewCount = d.ViewCount
			videos[i].Duration = d.Duration
		}
	}

	c.log.Info().
		Str("query", query).
		Int("requested", count).
		Int("found", len(videos)).
		Msg("Search completed")

	return videos, nil
}

// GetVideo loads one video's descriptor by ID
func (c *Client) GetVideo(ctx context.Context, videoID string) (models.VideoDescriptor, error) {
	if err := c.wait(ctx); err != nil {
		return models.VideoDescriptor{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return models.VideoDescriptor{}, classify(err, "get video")
	}
	if len(resp.Items) == 0 {
		return models.VideoDescriptor{}, fmt.Errorf("video %s not found", videoID)
	}

	v := resp.Items[0]
	d := models.VideoDescriptor{VideoID: v.Id}
	if v.Snippet != nil {
		d.Title = v.Snippet.Title
		d.ChannelName = v.Snippet.ChannelTitle
		d.ThumbnailURL = thumbnailURL(v.Snippet.Thumbnails)
		d.PublishedAt = v.Snippet.PublishedAt
	}
	if v.Statistics != nil {
		d.ViewCount = int64(v.Statistics.ViewCount)
	}
	if v.ContentDetails != nil {
		d.Duration = v.ContentDetails.Duration
	}
	return d, nil
}

type videoDetail struct {
	ViewCount int64
	Duration  string
}

func (c *Client) videoDetails(ctx context.Context, ids []string) (map[string]videoDetail, error) {
	details := make(map[string]videoDetail, len(ids))
	if len(ids) == 0 {
		return details, nil
	}
	if err := c.wait(ctx); err != nil {
		return details, err
	}

	resp, err := c.service.Videos.List([]string{"statistics", "contentDetails"}).
		Id(strings.Join(ids, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return details, classify(err, "video details")
	}

	for _, v := range resp.Items {
		var d videoDetail
		if v.Statistics != nil {
			d.ViewCount = int64(v.Statistics.ViewCount)
		}
		if v.ContentDetails != nil {
			d.Duration = v.ContentDetails.Duration
		}
		details[v.Id] = d
	}
	return details, nil
}

// FetchComments returns up to max top-level comments ordered by relevance.
// It fails soft: disabled comments and API errors yield an empty list, and
// an exhausted quota keeps what was already fetched. Only cancellation is
// returned as an error.
func (c *Client) FetchComments(ctx context.Context, videoID string, max int) ([]models.Comment, error) {
	if max <= 0 {
		max = commentPageSize
	}
	log := c.log.WithVideoID(videoID)
	comments := make([]models.Comment, 0, max)
	pageToken := ""

	for len(comments) < max {
		if err := c.wait(ctx); err != nil {
			return comments, ctx.Err()
		}

		pageSize := max - len(comments)
		if pageSize > commentPageSize {
			pageSize = commentPageSize
		}

		call := c.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(int64(pageSize)).
			Order("relevance").
			TextFormat("plainText")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := call.Context(reqCtx).Do()
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return comments, ctx.Err()
			}
			switch {
			case hasReason(err, "quotaExceeded"):
				log.Warn().Int("fetched", len(comments)).Msg("Quota exceeded while fetching comments, keeping partial set")
				return comments, nil
			case statusCode(err) == http.StatusForbidden || hasReason(err, "commentsDisabled"):
				log.Warn().Msg("Comments disabled or restricted")
			default:
				log.Error().Err(err).Msg("Failed to fetch comments")
			}
			return []models.Comment{}, nil
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
				continue
			}
			s := item.Snippet.TopLevelComment.Snippet
			comments = append(comments, models.Comment{
				Text:        s.TextDisplay,
				Author:      s.AuthorDisplayName,
				LikeCount:   s.LikeCount,
				ReplyCount:  item.Snippet.TotalReplyCount,
				PublishedAt: s.PublishedAt,
			})
			if len(comments) == max {
				break
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	log.Debug().Int("count", len(comments)).Msg("Fetched comments")
	return comments, nil
}

// publishedAfter maps an upload_date filter to an RFC 3339 timestamp
func publishedAfter(uploadDate string, now time.Time) (string, bool) {
	var d time.Duration
	switch uploadDate {
	case "hour":
		d = time.Hour
	case "today":
		d = 24 * time.Hour
	case "week":
		d = 7 * 24 * time.Hour
	case "month":
		d = 30 * 24 * time.Hour
	case "year":
		d = 365 * 24 * time.Hour
	default:
		return "", false
	}
	return now.Add(-d).UTC().Format(time.RFC3339), true
}

// thumbnailURL prefers the medium thumbnail, then high, then default
func thumbnailURL(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.Medium, t.High, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

// classify maps API errors onto the package sentinels
func classify(err error, op string) error {
	switch {
	case hasReason(err, "quotaExceeded") || statusCode(err) == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", op, ErrQuotaExceeded)
	case statusCode(err) == http.StatusForbidden || statusCode(err) == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func hasReason(err error, reason string) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	for _, item := range gerr.Errors {
		if item.Reason == reason {
			return true
		}
	}
	return false
}
