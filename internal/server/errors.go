package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comment-insights/internal/jobs"
	"github.com/comment-insights/internal/storage"
	"github.com/comment-insights/internal/youtube"
)

// httpError is an error with the status code it maps to
type httpError struct {
	code    int
	message string
}

func (e *httpError) Error() string { return e.message }

func badRequest(msg string) *httpError {
	return &httpError{code: http.StatusBadRequest, message: msg}
}

var (
	errNoVideos       = &httpError{code: http.StatusNotFound, message: "No videos found for the given query"}
	errNoResults      = &httpError{code: http.StatusInternalServerError, message: "Failed to analyze any videos"}
	errJobNotFound    = &httpError{code: http.StatusNotFound, message: "Job not found"}
	errAPIKeyRequired = badRequest("api_key is required")
	errLLMDisabled    = &httpError{code: http.StatusNotImplemented, message: "llm analyzer is not configured"}
)

// mapError translates domain errors into HTTP errors
func mapError(err error) *httpError {
	var he *httpError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, storage.ErrNotFound):
		return errJobNotFound
	case errors.Is(err, jobs.ErrAnalyzerUnavailable):
		return errLLMDisabled
	case errors.Is(err, youtube.ErrInvalidCredentials):
		return &httpError{code: http.StatusUnauthorized, message: err.Error()}
	case errors.Is(err, youtube.ErrQuotaExceeded):
		return &httpError{code: http.StatusServiceUnavailable, message: err.Error()}
	}
	return &httpError{code: http.StatusInternalServerError, message: "Internal server error: " + err.Error()}
}

func abortWithError(c *gin.Context, err error) {
	he := mapError(err)
	c.AbortWithStatusJSON(he.code, gin.H{"detail": he.message})
}
