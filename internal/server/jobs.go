package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comment-insights/internal/jobs"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/storage"
)

const maxJobListLimit = 200

type createJobReq struct {
	Query      string                `json:"query"`
	VideoCount int                   `json:"video_count"`
	Filters    *models.SearchFilters `json:"filters"`
	Analyzer   string                `json:"analyzer"`
}

type jobResp struct {
	Job     *models.Job         `json:"job"`
	Results []*models.JobResult `json:"results"`
}

func (s *Server) createJob(c *gin.Context) {
	var req createJobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest("invalid request body: "+err.Error()))
		return
	}

	jobReq := jobs.Request{
		Query:      req.Query,
		VideoCount: req.VideoCount,
		Filters:    req.Filters,
		Analyzer:   models.Analyzer(req.Analyzer),
		Source:     "api",
	}
	if err := jobReq.Validate(); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}

	job, err := s.deps.Jobs.Submit(c.Request.Context(), jobReq)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (s *Server) listJobs(c *gin.Context) {
	filter := storage.DefaultJobFilter()

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJobListLimit {
			abortWithError(c, badRequest(fmt.Sprintf("limit must be between 1 and %d", maxJobListLimit)))
			return
		}
		filter.Limit = n
	}
	if raw := c.Query("status"); raw != "" {
		status := models.JobStatus(raw)
		switch status {
		case models.JobStatusPending, models.JobStatusRunning, models.JobStatusCompleted, models.JobStatusFailed:
		default:
			abortWithError(c, badRequest("status must be pending, running, completed or failed"))
			return
		}
		filter.Status = &status
	}

	list, err := s.deps.Jobs.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if list == nil {
		list = []*models.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": list})
}

func (s *Server) getJob(c *gin.Context) {
	job, results, err := s.deps.Jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if results == nil {
		results = []*models.JobResult{}
	}
	c.JSON(http.StatusOK, jobResp{Job: job, Results: results})
}
