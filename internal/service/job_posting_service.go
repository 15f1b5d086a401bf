package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/repository"
	"github.com/hrops-platform/hrops-api/internal/workflow"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

// transitionRetries bounds how often a workflow mutation is replayed after an
// optimistic version conflict before giving up.
const transitionRetries = 3

type jobPostingRepository interface {
	Create(ctx context.Context, job *models.JobPosting, entry *models.JobWorkflowEntry) error
	FindByID(ctx context.Context, id string) (*models.JobPosting, error)
	FindByJobID(ctx context.Context, jobID string) (*models.JobPosting, error)
	List(ctx context.Context, filter models.JobPostingFilter) ([]models.JobPosting, int, error)
	ListForProcurement(ctx context.Context) ([]models.JobPosting, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.JobPosting, error)
	ApplyTransition(ctx context.Context, job *models.JobPosting, entry *models.JobWorkflowEntry) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateJobPostingRequest represents payload for opening a requisition.
type CreateJobPostingRequest struct {
	Department          string             `json:"department" validate:"required"`
	PositionTitle       string             `json:"position_title" validate:"required"`
	ExpectedExperience  string             `json:"expected_experience"`
	ExpectedDoj         time.Time          `json:"expected_doj" validate:"required"`
	JobDescription      string             `json:"job_description" validate:"required"`
	HardwareReqs        string             `json:"hardware_requirements"`
	SoftwareReqs        string             `json:"software_requirements"`
	BudgetApproved      *float64           `json:"budget_approved" validate:"omitempty,gte=0"`
	Currency            string             `json:"currency"`
	Priority            models.JobPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	UrgencyReason       string             `json:"urgency_reason"`
	SpecialInstructions string             `json:"special_instructions"`
}

// TransitionRequest carries the inputs of one workflow action.
type TransitionRequest struct {
	Action   models.JobPostingAction `json:"action" validate:"required"`
	Target   string                  `json:"target"`
	Comments string                  `json:"comments"`
}

// JobPostingService orchestrates requisition creation and lifecycle.
type JobPostingService struct {
	repo      jobPostingRepository
	sequences *SequenceService
	machine   *workflow.JobPostingMachine
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewJobPostingService constructs a JobPostingService.
func NewJobPostingService(repo jobPostingRepository, sequences *SequenceService, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *JobPostingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &JobPostingService{
		repo:      repo,
		sequences: sequences,
		machine:   workflow.NewJobPostingMachine(),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a requisition in draft. The human-readable jobId is allocated
// before anything is persisted; when allocation fails the requisition is not
// created at all.
func (s *JobPostingService) Create(ctx context.Context, req CreateJobPostingRequest, actor workflow.Actor, meta models.LoginRequest) (*models.JobPosting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job posting payload")
	}
	if !actor.Permissions.CanCreateJobs {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "actor is not allowed to create job postings")
	}

	jobID, err := s.sequences.Allocate(ctx, models.EntityClassJobPosting)
	if err != nil {
		return nil, err
	}

	now := s.now()
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	priority := req.Priority
	if priority == "" {
		priority = models.JobPriorityMedium
	}

	job := &models.JobPosting{
		JobID:               jobID,
		RequesterID:         actor.ID,
		Department:          req.Department,
		PositionTitle:       req.PositionTitle,
		ExpectedExperience:  req.ExpectedExperience,
		ExpectedDoj:         req.ExpectedDoj,
		JobDescription:      req.JobDescription,
		HardwareReqs:        req.HardwareReqs,
		SoftwareReqs:        req.SoftwareReqs,
		BudgetApproved:      req.BudgetApproved,
		Currency:            currency,
		Status:              models.JobStatusDraft,
		Priority:            priority,
		UrgencyReason:       req.UrgencyReason,
		SpecialInstructions: req.SpecialInstructions,
		CreatedBy:           actor.ID,
		CreatedAt:           now,
	}

	entry := &models.JobWorkflowEntry{
		Action:      "created",
		PerformedBy: actor.ID,
		PerformedAt: now,
		FromStatus:  models.JobStatusDraft,
		ToStatus:    models.JobStatusDraft,
	}

	if err := s.repo.Create(ctx, job, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job posting")
	}
	job.WorkflowHistory = []models.JobWorkflowEntry{*entry}

	s.invalidateListCache(ctx)
	s.auditJob(ctx, actor.ID, models.AuditActionJobCreate, job, meta)

	s.logger.Info("job posting created",
		zap.String("job_id", job.JobID),
		zap.String("department", job.Department))

	return job, nil
}

// Transition applies one workflow action with bounded optimistic retry. Each
// attempt reloads the requisition, replays the machine against the fresh
// status, and commits the mutation with its history entry atomically.
func (s *JobPostingService) Transition(ctx context.Context, id string, req TransitionRequest, actor workflow.Actor, meta models.LoginRequest) (*models.JobPosting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	var lastStatus models.JobPostingStatus
	for attempt := 0; attempt < transitionRetries; attempt++ {
		job, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "job posting not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job posting")
		}
		lastStatus = job.Status

		change := workflow.Change{Actor: actor, Target: req.Target, At: s.now(), Comments: req.Comments}
		entry, err := s.machine.Apply(job, req.Action, change)
		if err != nil {
			s.recordTransitionMetric(req.Action, "rejected")
			return nil, err
		}

		historyEntry := &models.JobWorkflowEntry{
			Action:      string(entry.Action),
			PerformedBy: entry.PerformedBy,
			PerformedAt: entry.PerformedAt,
			FromStatus:  entry.FromStatus,
			ToStatus:    entry.ToStatus,
			Comments:    entry.Comments,
		}

		err = s.repo.ApplyTransition(ctx, job, historyEntry)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Debug("job transition version conflict, retrying",
				zap.String("job_id", job.JobID),
				zap.String("action", string(req.Action)),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			s.recordTransitionMetric(req.Action, "error")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply job transition")
		}

		job.WorkflowHistory = append(job.WorkflowHistory, *historyEntry)
		s.recordTransitionMetric(req.Action, "applied")
		s.invalidateListCache(ctx)
		s.invalidateDetailCache(ctx, job.ID)
		s.auditTransition(ctx, actor.ID, job, historyEntry, meta)

		s.logger.Info("job posting transitioned",
			zap.String("job_id", job.JobID),
			zap.String("action", string(req.Action)),
			zap.String("from", string(historyEntry.FromStatus)),
			zap.String("to", string(historyEntry.ToStatus)))

		return job, nil
	}

	s.recordTransitionMetric(req.Action, "conflict_exhausted")
	return nil, appErrors.Clone(appErrors.ErrConflictRetryExhausted,
		fmt.Sprintf("job posting %s: action %q lost %d version races while status was %q", id, req.Action, transitionRetries, lastStatus))
}

// Get returns a requisition with its workflow history, consulting the cache
// first.
func (s *JobPostingService) Get(ctx context.Context, id string) (*models.JobPosting, error) {
	cacheKey := jobDetailCacheKey(id)
	if s.cache.Enabled() {
		var cached models.JobPosting
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job posting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job posting")
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, job, 0); err != nil {
			s.logger.Debug("failed to cache job posting", zap.Error(err))
		}
	}
	return job, nil
}

// GetByJobID returns a requisition by its human-readable identifier.
func (s *JobPostingService) GetByJobID(ctx context.Context, jobID string) (*models.JobPosting, error) {
	job, err := s.repo.FindByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job posting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job posting")
	}
	return job, nil
}

// List returns requisitions matching the filter with pagination metadata.
func (s *JobPostingService) List(ctx context.Context, filter models.JobPostingFilter) ([]models.JobPosting, *models.Pagination, error) {
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list job postings")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return jobs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ProcurementQueue returns approved requisitions ordered by priority and
// expected joining date.
func (s *JobPostingService) ProcurementQueue(ctx context.Context) ([]models.JobPosting, error) {
	jobs, err := s.repo.ListForProcurement(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load procurement queue")
	}
	return jobs, nil
}

// Overdue returns open requisitions whose expected joining date passed.
func (s *JobPostingService) Overdue(ctx context.Context) ([]models.JobPosting, error) {
	jobs, err := s.repo.ListOverdue(ctx, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overdue job postings")
	}
	return jobs, nil
}

func (s *JobPostingService) recordTransitionMetric(action models.JobPostingAction, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordTransition("job_posting", string(action), outcome)
	}
}

func (s *JobPostingService) auditJob(ctx context.Context, actorID string, action string, job *models.JobPosting, meta models.LoginRequest) {
	payload, _ := json.Marshal(map[string]interface{}{"job_id": job.JobID, "status": job.Status})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "job_postings",
		ResourceID: &job.ID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record job audit log", zap.Error(err))
	}
}

func (s *JobPostingService) auditTransition(ctx context.Context, actorID string, job *models.JobPosting, entry *models.JobWorkflowEntry, meta models.LoginRequest) {
	oldPayload, _ := json.Marshal(map[string]interface{}{"status": entry.FromStatus})
	newPayload, _ := json.Marshal(map[string]interface{}{"status": entry.ToStatus, "action": entry.Action})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionJobTransition,
		Resource:   "job_postings",
		ResourceID: &job.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record job transition audit log", zap.Error(err))
	}
}

func (s *JobPostingService) invalidateListCache(ctx context.Context) {
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "hrops:jobs:*"); err != nil {
			s.logger.Debug("failed to invalidate job list cache", zap.Error(err))
		}
	}
}

func (s *JobPostingService) invalidateDetailCache(ctx context.Context, id string) {
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, jobDetailCacheKey(id)); err != nil {
			s.logger.Debug("failed to invalidate job detail cache", zap.Error(err))
		}
	}
}

func jobDetailCacheKey(id string) string {
	return "hrops:jobs:detail:" + id
}
