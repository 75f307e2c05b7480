package source

import (
	"context"
	"fmt"

	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/pkg/logger"
)

// Searcher finds videos by free-text query
type Searcher interface {
	SearchVideos(ctx context.Context, query string, count int, filters *models.SearchFilters) ([]models.VideoDescriptor, error)
}

// Search is a VideoSource backed by an API search query
type Search struct {
	query    string
	filters  *models.SearchFilters
	searcher Searcher
	log      *logger.Logger
}

// NewSearch creates a search source for query
func NewSearch(query string, filters *models.SearchFilters, searcher Searcher, log *logger.Logger) *Search {
	return &Search{
		query:    query,
		filters:  filters,
		searcher: searcher,
		log:      log.WithSource("search", query),
	}
}

func (s *Search) Name() string { return s.query }

func (s *Search) Type() string { return "search" }

// Fetch runs the search
func (s *Search) Fetch(ctx context.Context, limit int) ([]models.VideoDescriptor, error) {
	videos, err := s.searcher.SearchVideos(ctx, s.query, limit, s.filters)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", s.query, err)
	}
	s.log.Debug().Int("count", len(videos)).Msg("Search source fetched")
	return videos, nil
}
