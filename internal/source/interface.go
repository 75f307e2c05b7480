package source

import (
	"context"
	"sync"

	"github.com/comment-insights/internal/models"
)

// VideoSource supplies videos for a scheduled batch
type VideoSource interface {
	// Name returns the unique name of this source
	Name() string

	// Type returns the source type (search, feed)
	Type() string

	// Fetch returns up to limit videos, newest or most relevant first
	Fetch(ctx context.Context, limit int) ([]models.VideoDescriptor, error)
}

// Result is the outcome of fetching one source
type Result struct {
	Source VideoSource
	Videos []models.VideoDescriptor
	Err    error
}

// Manager manages multiple video sources
type Manager struct {
	sources []VideoSource
}

// NewManager creates a new source manager
func NewManager() *Manager {
	return &Manager{
		sources: make([]VideoSource, 0),
	}
}

// Register adds a source to the manager
func (m *Manager) Register(source VideoSource) {
	m.sources = append(m.sources, source)
}

// GetSources returns all registered sources
func (m *Manager) GetSources() []VideoSource {
	return m.sources
}

// GetSourceByName returns a source by name
func (m *Manager) GetSourceByName(name string) VideoSource {
	for _, s := range m.sources {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// FetchAll fetches every source concurrently. Results keep registration
// order; each source's video list is deduplicated.
func (m *Manager) FetchAll(ctx context.Context, limit int) []Result {
	results := make([]Result, len(m.sources))

	var wg sync.WaitGroup
	for i, s := range m.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			videos, err := s.Fetch(ctx, limit)
			results[i] = Result{Source: s, Videos: Dedupe(videos), Err: err}
		}()
	}
	wg.Wait()

	return results
}

// Dedupe drops repeated video IDs, keeping the first occurrence
func Dedupe(videos []models.VideoDescriptor) []models.VideoDescriptor {
	seen := make(map[string]bool, len(videos))
	out := make([]models.VideoDescriptor, 0, len(videos))
	for _, v := range videos {
		if v.VideoID == "" || seen[v.VideoID] {
			continue
		}
		seen[v.VideoID] = true
		out = append(out, v)
	}
	return out
}
