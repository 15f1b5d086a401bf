package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
)

func draftJob() *models.JobPosting {
	return &models.JobPosting{
		ID:      "id-1",
		JobID:   "JOB-2026-0001",
		Status:  models.JobStatusPendingApproval,
		Version: 2,
	}
}

func submitEntry() *models.JobWorkflowEntry {
	return &models.JobWorkflowEntry{
		Action:      string(models.JobActionApprove),
		PerformedBy: "mgr-1",
		FromStatus:  models.JobStatusPendingApproval,
		ToStatus:    models.JobStatusApproved,
	}
}

func TestApplyTransitionCommitsUpdateAndHistory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobPostingRepository(db)
	job := draftJob()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE job_postings SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO job_workflow_history`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ApplyTransition(context.Background(), job, submitEntry()))
	assert.Equal(t, 3, job.Version, "version increments on success")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransitionVersionConflictRestoresVersion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobPostingRepository(db)
	job := draftJob()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE job_postings SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), job, submitEntry())
	require.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 2, job.Version, "version is restored so the caller can retry from a fresh read")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransitionHistoryFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobPostingRepository(db)
	job := draftJob()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE job_postings SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO job_workflow_history`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), job, submitEntry())
	require.Error(t, err)
	assert.Equal(t, 2, job.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}
