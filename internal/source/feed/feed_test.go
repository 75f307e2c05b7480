package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/pkg/logger"
)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Gopher Talks</title>
 <entry>
  <id>yt:video:vid001</id>
  <yt:videoId>vid001</yt:videoId>
  <title>Generics in Go</title>
  <author><name>Gopher Talks</name></author>
  <published>2024-03-01T10:00:00+00:00</published>
  <media:group>
   <media:title>Generics in Go</media:title>
   <media:thumbnail url="https://i.ytimg.com/vi/vid001/hqdefault.jpg" width="480" height="360"/>
   <media:community>
    <media:statistics views="4242"/>
   </media:community>
  </media:group>
 </entry>
 <entry>
  <id>yt:video:vid002</id>
  <yt:videoId>vid002</yt:videoId>
  <title>Channels Explained</title>
  <published>2024-02-20T10:00:00+00:00</published>
 </entry>
 <entry>
  <id>tag:other</id>
  <title>Not a video</title>
 </entry>
</feed>`

func serveFeed(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		io.WriteString(w, channelFeed)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestFetch(t *testing.T) {
	s := New(config.FeedConfig{Name: "gophers", URL: serveFeed(t)}, logger.Nop())

	videos, err := s.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d: %+v", len(videos), videos)
	}

	v := videos[0]
	if v.VideoID != "vid001" || v.Title != "Generics in Go" || v.ChannelName != "Gopher Talks" {
		t.Errorf("video 0 = %+v", v)
	}
	if v.ThumbnailURL != "https://i.ytimg.com/vi/vid001/hqdefault.jpg" || v.ViewCount != 4242 {
		t.Errorf("media fields = %q / %d", v.ThumbnailURL, v.ViewCount)
	}
	if videos[1].ChannelName != "Gopher Talks" {
		t.Errorf("channel should fall back to feed title, got %q", videos[1].ChannelName)
	}
}

func TestFetchLimit(t *testing.T) {
	s := New(config.FeedConfig{URL: serveFeed(t)}, logger.Nop())
	videos, err := s.Fetch(context.Background(), 1)
	if err != nil || len(videos) != 1 {
		t.Fatalf("got %d videos, %v", len(videos), err)
	}
}

func TestChannelURL(t *testing.T) {
	s := New(config.FeedConfig{ChannelID: "UC123"}, logger.Nop())
	if s.url != "https://www.youtube.com/feeds/videos.xml?channel_id=UC123" {
		t.Errorf("url = %s", s.url)
	}
	if s.Name() != "UC123" || s.Type() != "feed" {
		t.Errorf("name/type = %s/%s", s.Name(), s.Type())
	}
}

func TestFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	s := New(config.FeedConfig{Name: "broken", URL: srv.URL}, logger.Nop())
	if _, err := s.Fetch(context.Background(), 5); err == nil {
		t.Fatal("expected error")
	}
}
