package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comment-insights/internal/batch"
	"github.com/comment-insights/internal/jobs"
	"github.com/comment-insights/internal/models"
)

type analyzeParams struct {
	Query      string
	VideoCount int
	Filters    *models.SearchFilters
	APIKey     string
	Analyzer   models.Analyzer
}

// parseAnalyzeParams reads the query string, except for filters
func parseAnalyzeParams(c *gin.Context) (analyzeParams, error) {
	var p analyzeParams

	p.Query = strings.TrimSpace(c.Query("query"))
	if p.Query == "" {
		return p, badRequest("query is required")
	}

	n, err := strconv.Atoi(c.Query("video_count"))
	if err != nil || n < 1 || n > jobs.MaxVideoCount {
		return p, badRequest(fmt.Sprintf("video_count must be an integer between 1 and %d", jobs.MaxVideoCount))
	}
	p.VideoCount = n

	analyzer, err := models.ParseAnalyzer(c.Query("analyzer"))
	if err != nil {
		return p, badRequest(err.Error())
	}
	p.Analyzer = analyzer
	p.APIKey = strings.TrimSpace(c.Query("api_key"))
	return p, nil
}

// parseFilters decodes the optional filters JSON parameter
func parseFilters(c *gin.Context) (*models.SearchFilters, error) {
	filters, err := models.ParseSearchFilters(c.Query("filters"))
	if err != nil {
		// "Invalid filters JSON: ..."
		msg := err.Error()
		return nil, badRequest(strings.ToUpper(msg[:1]) + msg[1:])
	}
	return filters, nil
}

// youtubeFor picks the client for a request
func (s *Server) youtubeFor(ctx context.Context, apiKey string) (YouTube, error) {
	if apiKey != "" && s.deps.ForKey != nil {
		return s.deps.ForKey(ctx, apiKey)
	}
	if s.deps.YouTube == nil {
		return nil, errAPIKeyRequired
	}
	return s.deps.YouTube, nil
}

func (s *Server) batchOptions() batch.Options {
	return batch.Options{Pacer: s.deps.Pacer, MaxComments: s.deps.MaxComments}
}

// search runs the video search for p, mapping an empty result to 404
func (s *Server) search(ctx context.Context, p analyzeParams) (YouTube, []models.VideoDescriptor, error) {
	yt, err := s.youtubeFor(ctx, p.APIKey)
	if err != nil {
		return nil, nil, err
	}
	videos, err := yt.SearchVideos(ctx, p.Query, p.VideoCount, p.Filters)
	if err != nil {
		return nil, nil, err
	}
	if len(videos) == 0 {
		return nil, nil, errNoVideos
	}
	return yt, videos, nil
}

func (s *Server) analyze(c *gin.Context) {
	p, err := parseAnalyzeParams(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if p.Filters, err = parseFilters(c); err != nil {
		abortWithError(c, err)
		return
	}
	if p.Analyzer == models.AnalyzerLLM && s.deps.LLM == nil {
		abortWithError(c, errLLMDisabled)
		return
	}

	s.log.Info().
		Str("query", p.Query).
		Int("video_count", p.VideoCount).
		Str("analyzer", string(p.Analyzer)).
		Msg("Starting analysis")

	yt, videos, err := s.search(c.Request.Context(), p)
	if err != nil {
		abortWithError(c, err)
		return
	}

	l := s.log.WithComponent("analyze")
	switch p.Analyzer {
	case models.AnalyzerLLM:
		runBatch(c, batch.New(yt, s.deps.LLM, s.batchOptions(), l), videos)
	default:
		runBatch(c, batch.New(yt, s.deps.Heuristic, s.batchOptions(), l), videos)
	}
}

func runBatch[R any](c *gin.Context, orch *batch.Orchestrator[R], videos []models.VideoDescriptor) {
	resp, err := orch.Run(c.Request.Context(), videos, nil)
	if err != nil {
		// client went away; nothing useful to send
		c.Abort()
		return
	}
	if len(resp.Videos) == 0 {
		abortWithError(c, errNoResults)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) analyzeStream(c *gin.Context) {
	p, err := parseAnalyzeParams(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if p.Analyzer == models.AnalyzerLLM && s.deps.LLM == nil {
		abortWithError(c, errLLMDisabled)
		return
	}
	filters, filterErr := parseFilters(c)
	p.Filters = filters

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	if filterErr != nil {
		writeFrame(c, gin.H{"error": filterErr.Error()})
		return
	}

	yt, videos, err := s.search(c.Request.Context(), p)
	if err != nil {
		if errors.Is(err, errNoVideos) {
			writeFrame(c, gin.H{"error": errNoVideos.message})
		} else {
			writeFrame(c, gin.H{"error": "Stream error: " + err.Error()})
		}
		return
	}

	l := s.log.WithComponent("stream")
	switch p.Analyzer {
	case models.AnalyzerLLM:
		streamBatch(c, batch.New(yt, s.deps.LLM, s.batchOptions(), l), videos)
	default:
		streamBatch(c, batch.New(yt, s.deps.Heuristic, s.batchOptions(), l), videos)
	}
}

// streamBatch writes one frame per progress record, then the final aggregate.
// A write failure means the client disconnected, which stops the batch.
func streamBatch[R any](c *gin.Context, orch *batch.Orchestrator[R], videos []models.VideoDescriptor) {
	for ev := range orch.Stream(c.Request.Context(), videos) {
		switch {
		case ev.Progress != nil:
			if !writeFrame(c, ev.Progress) {
				return
			}
		case ev.Final != nil:
			writeFrame(c, gin.H{"final_results": ev.Final})
		case ev.Err != nil:
			writeFrame(c, gin.H{"error": "Stream error: " + ev.Err.Error()})
		}
	}
}

// writeFrame writes one "data:" line and flushes it
func writeFrame(c *gin.Context, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", b); err != nil {
		return false
	}
	c.Writer.Flush()
	return c.Request.Context().Err() == nil
}
