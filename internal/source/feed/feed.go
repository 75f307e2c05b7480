package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

const channelFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id="

// Source implements VideoSource for a YouTube channel's Atom feed. Feeds
// cost no API quota but only list the channel's latest uploads.
type Source struct {
	name   string
	url    string
	parser *gofeed.Parser
	log    *logger.Logger
}

// New creates a new feed source for one channel
func New(feed config.FeedConfig, log *logger.Logger) *Source {
	u := feed.URL
	if u == "" {
		u = channelFeedURL + url.QueryEscape(feed.ChannelID)
	}
	name := feed.Name
	if name == "" {
		name = feed.ChannelID
	}
	return &Source{
		name:   name,
		url:    u,
		parser: gofeed.NewParser(),
		log:    log.WithSource("feed", name),
	}
}

// NewMultiple creates feed sources from config
func NewMultiple(feeds []config.FeedConfig, log *logger.Logger) []*Source {
	sources := make([]*Source, 0, len(feeds))
	for _, f := range feeds {
		sources = append(sources, New(f, log))
	}
	return sources
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}

// Type returns "feed"
func (s *Source) Type() string {
	return "feed"
}

// Fetch returns up to limit of the channel's latest videos
func (s *Source) Fetch(ctx context.Context, limit int) ([]models.VideoDescriptor, error) {
	s.log.Debug().Str("url", s.url).Msg("Fetching channel feed")

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", s.name, err)
	}

	videos := make([]models.VideoDescriptor, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := extensionValue(item.Extensions, "yt", "videoId")
		if id == "" {
			continue
		}

		v := models.VideoDescriptor{
			VideoID:     id,
			Title:       item.Title,
			ChannelName: feed.Title,
			PublishedAt: item.Published,
		}
		if item.Author != nil && item.Author.Name != "" {
			v.ChannelName = item.Author.Name
		}
		if group := firstExtension(item.Extensions, "media", "group"); group != nil {
			if thumb := firstChild(group, "thumbnail"); thumb != nil {
				v.ThumbnailURL = thumb.Attrs["url"]
			}
			if community := firstChild(group, "community"); community != nil {
				if stats := firstChild(community, "statistics"); stats != nil {
					v.ViewCount, _ = strconv.ParseInt(stats.Attrs["views"], 10, 64)
				}
			}
		}
		if v.ThumbnailURL == "" && item.Image != nil {
			v.ThumbnailURL = item.Image.URL
		}

		videos = append(videos, v)
		if limit > 0 && len(videos) == limit {
			break
		}
	}

	s.log.Info().
		Int("count", len(videos)).
		Str("feed", s.name).
		Msg("Fetched channel feed")

	return videos, nil
}

func firstExtension(exts ext.Extensions, namespace, name string) *ext.Extension {
	if exts == nil {
		return nil
	}
	list := exts[namespace][name]
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

func firstChild(e *ext.Extension, name string) *ext.Extension {
	list := e.Children[name]
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

func extensionValue(exts ext.Extensions, namespace, name string) string {
	if e := firstExtension(exts, namespace, name); e != nil {
		return e.Value
	}
	return ""
}
