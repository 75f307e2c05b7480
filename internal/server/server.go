package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comment-insights/internal/batch"
	"github.com/comment-insights/internal/jobs"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/source"
	"github.com/comment-insights/pkg/logger"
	"github.com/comment-insights/pkg/ratelimit"
)

// ServiceName is reported by the health endpoint
const ServiceName = "comment-insights"

// YouTube is the upstream the analyze endpoints search and fetch from
type YouTube interface {
	source.Searcher
	batch.CommentFetcher
}

// Deps are the collaborators behind the HTTP API
type Deps struct {
	// YouTube is the configured client; nil requires api_key on every request
	YouTube YouTube
	// ForKey returns a client for a caller-supplied API key; nil ignores api_key
	ForKey func(ctx context.Context, apiKey string) (YouTube, error)

	Heuristic batch.Analyzer[models.VideoAnalysis]
	// LLM is nil when no language model is configured
	LLM batch.Analyzer[models.LLMAnalysis]

	Pacer       batch.Pacer
	MaxComments int

	// Jobs is nil when persistence is disabled
	Jobs *jobs.Runner

	Counter        *ratelimit.RequestCounter
	AllowedOrigins []string
}

// Server is the HTTP boundary
type Server struct {
	deps   Deps
	engine *gin.Engine
	log    *logger.Logger
}

// New builds the router
func New(deps Deps, log *logger.Logger) *Server {
	s := &Server{
		deps: deps,
		log:  log.WithComponent("http"),
	}

	r := gin.New()
	r.Use(recovery(s.log), requestLogger(s.log), cors(deps.AllowedOrigins))

	r.GET("/health", s.health)

	limited := r.Group("/")
	limited.Use(rateLimit(deps.Counter))
	limited.GET("/analyze-youtube", s.analyze)
	limited.GET("/analyze-youtube-stream", s.analyzeStream)
	if deps.Jobs != nil {
		limited.POST("/jobs", s.createJob)
		limited.GET("/jobs", s.listJobs)
		limited.GET("/jobs/:id", s.getJob)
	}

	s.engine = r
	return s
}

// Handler returns the router as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
	})
}
