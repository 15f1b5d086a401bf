package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/repository"
	"github.com/hrops-platform/hrops-api/internal/workflow"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

type mockJobRepo struct {
	jobs            map[string]*models.JobPosting
	createCalls     int
	transitionCalls int
	conflictsLeft   int
	auditLogs       []*models.AuditLog
	lastEntry       *models.JobWorkflowEntry
}

func newMockJobRepo(jobs ...*models.JobPosting) *mockJobRepo {
	repo := &mockJobRepo{jobs: make(map[string]*models.JobPosting)}
	for _, j := range jobs {
		repo.jobs[j.ID] = j
	}
	return repo
}

func (m *mockJobRepo) Create(ctx context.Context, job *models.JobPosting, entry *models.JobWorkflowEntry) error {
	m.createCalls++
	if job.ID == "" {
		job.ID = "generated-id"
	}
	m.jobs[job.ID] = job
	m.lastEntry = entry
	return nil
}

func (m *mockJobRepo) FindByID(ctx context.Context, id string) (*models.JobPosting, error) {
	if j, ok := m.jobs[id]; ok {
		copied := *j
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockJobRepo) FindByJobID(ctx context.Context, jobID string) (*models.JobPosting, error) {
	for _, j := range m.jobs {
		if j.JobID == jobID {
			copied := *j
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockJobRepo) List(ctx context.Context, filter models.JobPostingFilter) ([]models.JobPosting, int, error) {
	out := make([]models.JobPosting, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	return out, len(out), nil
}

func (m *mockJobRepo) ListForProcurement(ctx context.Context) ([]models.JobPosting, error) {
	return nil, nil
}

func (m *mockJobRepo) ListOverdue(ctx context.Context, now time.Time) ([]models.JobPosting, error) {
	return nil, nil
}

func (m *mockJobRepo) ApplyTransition(ctx context.Context, job *models.JobPosting, entry *models.JobWorkflowEntry) error {
	m.transitionCalls++
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return repository.ErrVersionConflict
	}
	stored := *job
	stored.Version++
	m.jobs[job.ID] = &stored
	m.lastEntry = entry
	return nil
}

func (m *mockJobRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newJobServiceForTest(repo jobPostingRepository, counter sequenceCounter) *JobPostingService {
	svc := NewJobPostingService(repo, newSequenceServiceForTest(counter), nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC) }
	return svc
}

func validCreateJobRequest() CreateJobPostingRequest {
	return CreateJobPostingRequest{
		Department:     "engineering",
		PositionTitle:  "Backend Engineer",
		ExpectedDoj:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		JobDescription: "Own the billing services.",
	}
}

func TestJobCreateAllocatesIdentifierAndSeedsHistory(t *testing.T) {
	repo := newMockJobRepo()
	svc := newJobServiceForTest(repo, newMemoryCounter())
	actor := workflow.Actor{ID: "mgr-1", Permissions: models.PermissionsForRole(models.RoleManager)}

	job, err := svc.Create(context.Background(), validCreateJobRequest(), actor, models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, "JOB-2026-0001", job.JobID)
	assert.Equal(t, models.JobStatusDraft, job.Status)
	assert.Equal(t, "INR", job.Currency)
	assert.Equal(t, models.JobPriorityMedium, job.Priority)
	require.Len(t, job.WorkflowHistory, 1)
	assert.Equal(t, "created", job.WorkflowHistory[0].Action)
	assert.Equal(t, models.JobStatusDraft, job.WorkflowHistory[0].FromStatus)
	assert.Equal(t, models.JobStatusDraft, job.WorkflowHistory[0].ToStatus)
	assert.Equal(t, 1, repo.createCalls)
}

func TestJobCreateAbortsWhenAllocationFails(t *testing.T) {
	repo := newMockJobRepo()
	counter := newMemoryCounter()
	counter.err = assert.AnError
	svc := newJobServiceForTest(repo, counter)
	actor := workflow.Actor{ID: "mgr-1", Permissions: models.PermissionsForRole(models.RoleManager)}

	_, err := svc.Create(context.Background(), validCreateJobRequest(), actor, models.LoginRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrResourceUnavailable))
	assert.Zero(t, repo.createCalls, "nothing may be persisted when allocation fails")
}

func TestJobCreateRequiresPermission(t *testing.T) {
	repo := newMockJobRepo()
	svc := newJobServiceForTest(repo, newMemoryCounter())
	actor := workflow.Actor{ID: "ops-1", Permissions: models.PermissionsForRole(models.RoleBranchOps)}

	_, err := svc.Create(context.Background(), validCreateJobRequest(), actor, models.LoginRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
}

func TestJobTransitionAppliesAndAppendsHistory(t *testing.T) {
	job := &models.JobPosting{ID: "id-1", JobID: "JOB-2026-0001", Status: models.JobStatusDraft, Version: 1}
	repo := newMockJobRepo(job)
	svc := newJobServiceForTest(repo, newMemoryCounter())
	actor := workflow.Actor{ID: "mgr-1", Permissions: models.PermissionsForRole(models.RoleManager)}

	updated, err := svc.Transition(context.Background(), "id-1", TransitionRequest{Action: models.JobActionSubmit}, actor, models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusPendingApproval, updated.Status)
	require.Len(t, updated.WorkflowHistory, 1)
	assert.Equal(t, string(models.JobActionSubmit), updated.WorkflowHistory[0].Action)
	assert.Equal(t, models.JobStatusDraft, updated.WorkflowHistory[0].FromStatus)
	assert.Equal(t, models.JobStatusPendingApproval, updated.WorkflowHistory[0].ToStatus)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionJobTransition, repo.auditLogs[0].Action)
}

func TestJobTransitionRetriesVersionConflicts(t *testing.T) {
	job := &models.JobPosting{ID: "id-1", JobID: "JOB-2026-0001", Status: models.JobStatusDraft, Version: 1}
	repo := newMockJobRepo(job)
	repo.conflictsLeft = 2
	svc := newJobServiceForTest(repo, newMemoryCounter())
	actor := workflow.Actor{ID: "mgr-1", Permissions: models.PermissionsForRole(models.RoleManager)}

	updated, err := svc.Transition(context.Background(), "id-1", TransitionRequest{Action: models.JobActionSubmit}, actor, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPendingApproval, updated.Status)
	assert.Equal(t, 3, repo.transitionCalls, "two conflicts then one success")
}

func TestJobTransitionExhaustsRetries(t *testing.T) {
	job := &models.JobPosting{ID: "id-1", JobID: "JOB-2026-0001", Status: models.JobStatusDraft, Version: 1}
	repo := newMockJobRepo(job)
	repo.conflictsLeft = 3
	svc := newJobServiceForTest(repo, newMemoryCounter())
	actor := workflow.Actor{ID: "mgr-1", Permissions: models.PermissionsForRole(models.RoleManager)}

	_, err := svc.Transition(context.Background(), "id-1", TransitionRequest{Action: models.JobActionSubmit}, actor, models.LoginRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflictRetryExhausted))
	assert.Equal(t, 3, repo.transitionCalls)
}

func TestJobTransitionMachineRejectionDoesNotPersist(t *testing.T) {
	job := &models.JobPosting{ID: "id-1", JobID: "JOB-2026-0001", Status: models.JobStatusDraft, Version: 1}
	repo := newMockJobRepo(job)
	svc := newJobServiceForTest(repo, newMemoryCounter())
	actor := workflow.Actor{ID: "mgr-1", Permissions: models.PermissionsForRole(models.RoleManager)}

	_, err := svc.Transition(context.Background(), "id-1", TransitionRequest{Action: models.JobActionFill}, actor, models.LoginRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
	assert.Zero(t, repo.transitionCalls)
	assert.Equal(t, models.JobStatusDraft, repo.jobs["id-1"].Status)
}

func TestJobTransitionNotFound(t *testing.T) {
	svc := newJobServiceForTest(newMockJobRepo(), newMemoryCounter())
	actor := workflow.Actor{ID: "mgr-1", Permissions: models.PermissionsForRole(models.RoleManager)}

	_, err := svc.Transition(context.Background(), "missing", TransitionRequest{Action: models.JobActionSubmit}, actor, models.LoginRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
