package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestSequenceNextUpsertsAndReturnsSeq(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSequenceRepository(db)

	mock.ExpectQuery(`INSERT INTO id_sequences`).
		WithArgs("job_posting", 2026).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(7)))

	seq, err := repo.Next(context.Background(), models.EntityClassJobPosting, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceNextFirstAllocationYieldsOne(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSequenceRepository(db)

	mock.ExpectQuery(`INSERT INTO id_sequences`).
		WithArgs("asset", 2026).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(1)))

	seq, err := repo.Next(context.Background(), models.EntityClassAsset, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceNextPropagatesError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSequenceRepository(db)

	mock.ExpectQuery(`INSERT INTO id_sequences`).
		WithArgs("asset", 2026).
		WillReturnError(assert.AnError)

	_, err := repo.Next(context.Background(), models.EntityClassAsset, 2026)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
