package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
)

func transitionAudit(action, resource string) *models.AuditLog {
	actor := "mgr-1"
	resourceID := "id-1"
	return &models.AuditLog{
		UserID:     &actor,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
	}
}

func TestJobPostingRepositoryCreateAuditLog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobPostingRepository(db)
	entry := transitionAudit(models.AuditActionJobTransition, "job_posting")

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID, "missing id is generated")
	assert.False(t, entry.CreatedAt.IsZero(), "missing timestamp is stamped")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepositoryCreateAuditLog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssetRepository(db)
	entry := transitionAudit(models.AuditActionAssetTransition, "asset")

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAuditLog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	entry := transitionAudit(models.AuditActionLogin, "user")

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnError(assert.AnError)

	require.Error(t, repo.CreateAuditLog(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}
