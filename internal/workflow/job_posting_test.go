package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

func managerActor() Actor {
	return Actor{ID: "mgr-1", Role: models.RoleManager, Permissions: models.PermissionsForRole(models.RoleManager)}
}

func procurementActor() Actor {
	return Actor{ID: "proc-1", Role: models.RoleProcurement, Permissions: models.PermissionsForRole(models.RoleProcurement)}
}

func TestJobPostingHappyPath(t *testing.T) {
	m := NewJobPostingMachine()
	job := &models.JobPosting{JobID: "JOB-2026-0001", Status: models.JobStatusDraft}

	steps := []struct {
		action models.JobPostingAction
		actor  Actor
		want   models.JobPostingStatus
	}{
		{models.JobActionSubmit, managerActor(), models.JobStatusPendingApproval},
		{models.JobActionApprove, managerActor(), models.JobStatusApproved},
		{models.JobActionAssignProcurement, procurementActor(), models.JobStatusInProcurement},
		{models.JobActionFill, procurementActor(), models.JobStatusFilled},
	}

	for _, step := range steps {
		entry, err := m.Apply(job, step.action, Change{Actor: step.actor, At: time.Now().UTC()})
		require.NoError(t, err, "action %s", step.action)
		assert.Equal(t, step.want, job.Status)
		assert.Equal(t, step.want, entry.ToStatus)
	}
}

func TestJobPostingRejectReturnsToDraft(t *testing.T) {
	m := NewJobPostingMachine()
	job := &models.JobPosting{JobID: "JOB-2026-0002", Status: models.JobStatusPendingApproval}
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	entry, err := m.Apply(job, models.JobActionReject, Change{Actor: managerActor(), At: at, Comments: "budget not approved"})
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusDraft, job.Status)
	assert.Equal(t, models.JobStatusPendingApproval, entry.FromStatus)
	assert.Equal(t, models.JobStatusDraft, entry.ToStatus)
	assert.Equal(t, "budget not approved", entry.Comments)
	require.NotNil(t, job.RejectedBy)
	assert.Equal(t, "mgr-1", *job.RejectedBy)
	assert.Equal(t, "budget not approved", job.RejectionReason)

	// resubmission after revision is allowed
	_, err = m.Apply(job, models.JobActionSubmit, Change{Actor: managerActor(), At: at.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPendingApproval, job.Status)
}

func TestJobPostingFillFromDraftIsInvalid(t *testing.T) {
	m := NewJobPostingMachine()
	job := &models.JobPosting{JobID: "JOB-2026-0003", Status: models.JobStatusDraft}

	_, err := m.Apply(job, models.JobActionFill, Change{Actor: procurementActor()})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
	assert.Equal(t, models.JobStatusDraft, job.Status)
}

func TestJobPostingTerminalStatesRejectEverything(t *testing.T) {
	m := NewJobPostingMachine()
	actions := []models.JobPostingAction{
		models.JobActionSubmit,
		models.JobActionApprove,
		models.JobActionReject,
		models.JobActionAssignProcurement,
		models.JobActionFill,
		models.JobActionCancel,
	}

	for _, status := range []models.JobPostingStatus{models.JobStatusFilled, models.JobStatusCancelled} {
		for _, action := range actions {
			job := &models.JobPosting{JobID: "JOB-2026-0004", Status: status}
			_, err := m.Apply(job, action, Change{Actor: managerActor()})
			require.Error(t, err, "status %s action %s", status, action)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
		}
	}
}

func TestJobPostingApproveRequiresPermission(t *testing.T) {
	m := NewJobPostingMachine()
	job := &models.JobPosting{JobID: "JOB-2026-0005", Status: models.JobStatusPendingApproval}

	_, err := m.Apply(job, models.JobActionApprove, Change{Actor: procurementActor()})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
	assert.Equal(t, models.JobStatusPendingApproval, job.Status)
}

func TestJobPostingApproveRecordsSideFields(t *testing.T) {
	m := NewJobPostingMachine()
	job := &models.JobPosting{JobID: "JOB-2026-0006", Status: models.JobStatusPendingApproval}
	at := time.Date(2026, 5, 2, 14, 30, 0, 0, time.UTC)

	_, err := m.Apply(job, models.JobActionApprove, Change{Actor: managerActor(), At: at, Comments: "ok"})
	require.NoError(t, err)

	require.NotNil(t, job.ApprovedBy)
	assert.Equal(t, "mgr-1", *job.ApprovedBy)
	require.NotNil(t, job.ApprovedAt)
	assert.Equal(t, at, *job.ApprovedAt)
	assert.Equal(t, "ok", job.ApprovalComments)
}

func TestJobPostingAssignProcurementDefaultsToActor(t *testing.T) {
	m := NewJobPostingMachine()
	job := &models.JobPosting{JobID: "JOB-2026-0007", Status: models.JobStatusApproved}

	_, err := m.Apply(job, models.JobActionAssignProcurement, Change{Actor: procurementActor()})
	require.NoError(t, err)
	require.NotNil(t, job.ProcurementAssignedTo)
	assert.Equal(t, "proc-1", *job.ProcurementAssignedTo)

	job2 := &models.JobPosting{JobID: "JOB-2026-0008", Status: models.JobStatusApproved}
	_, err = m.Apply(job2, models.JobActionAssignProcurement, Change{Actor: managerActor(), Target: "proc-9"})
	require.NoError(t, err)
	require.NotNil(t, job2.ProcurementAssignedTo)
	assert.Equal(t, "proc-9", *job2.ProcurementAssignedTo)
}
