package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/service"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
	"github.com/hrops-platform/hrops-api/pkg/response"
)

// JobPostingHandler handles requisition endpoints.
type JobPostingHandler struct {
	service *service.JobPostingService
}

// NewJobPostingHandler creates a new requisition handler.
func NewJobPostingHandler(svc *service.JobPostingService) *JobPostingHandler {
	return &JobPostingHandler{service: svc}
}

// Create godoc
// @Summary Create job posting
// @Description Open a requisition in draft with an allocated jobId
// @Tags JobPostings
// @Accept json
// @Produce json
// @Param payload body service.CreateJobPostingRequest true "Create payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /job-postings [post]
func (h *JobPostingHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateJobPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	job, err := h.service.Create(c.Request.Context(), req, actorFromClaims(claims), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, job)
}

// Transition godoc
// @Summary Apply workflow action
// @Description Apply a lifecycle action (submit, approve, reject, assignProcurement, fill, cancel)
// @Tags JobPostings
// @Accept json
// @Produce json
// @Param id path string true "Job posting ID"
// @Param payload body service.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /job-postings/{id}/transition [post]
func (h *JobPostingHandler) Transition(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	job, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, actorFromClaims(claims), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, job, nil)
}

// List godoc
// @Summary List job postings
// @Description List requisitions with pagination and filtering
// @Tags JobPostings
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Status filter"
// @Param department query string false "Department filter"
// @Param priority query string false "Priority filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /job-postings [get]
func (h *JobPostingHandler) List(c *gin.Context) {
	var filter models.JobPostingFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	if status := c.Query("status"); status != "" {
		s := models.JobPostingStatus(status)
		filter.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.JobPriority(priority)
		filter.Priority = &p
	}
	filter.Department = c.Query("department")
	filter.RequesterID = c.Query("requester_id")

	if from := c.Query("from_date"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &ts
		}
	}
	if to := c.Query("to_date"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &ts
		}
	}

	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	jobs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, jobs, pagination)
}

// Get godoc
// @Summary Get job posting
// @Description Get requisition detail with workflow history
// @Tags JobPostings
// @Produce json
// @Param id path string true "Job posting ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /job-postings/{id} [get]
func (h *JobPostingHandler) Get(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, job, nil)
}

// GetByJobID godoc
// @Summary Get job posting by jobId
// @Description Get requisition by its human-readable identifier
// @Tags JobPostings
// @Produce json
// @Param jobId path string true "Human-readable job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /job-postings/by-job-id/{jobId} [get]
func (h *JobPostingHandler) GetByJobID(c *gin.Context) {
	job, err := h.service.GetByJobID(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, job, nil)
}

// ProcurementQueue godoc
// @Summary Procurement queue
// @Description Approved requisitions ordered by priority and expected joining date
// @Tags JobPostings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /job-postings/procurement-queue [get]
func (h *JobPostingHandler) ProcurementQueue(c *gin.Context) {
	jobs, err := h.service.ProcurementQueue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, jobs, nil)
}

// Overdue godoc
// @Summary Overdue job postings
// @Description Open requisitions whose expected joining date passed
// @Tags JobPostings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /job-postings/overdue [get]
func (h *JobPostingHandler) Overdue(c *gin.Context) {
	jobs, err := h.service.Overdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, jobs, nil)
}
