package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotrack/echotrack-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestCreateAllocatesNextDisplayID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(advisoryLockClass, 25).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(CAST\(split_part`).
		WithArgs("25.%").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12))
	mock.ExpectQuery(`INSERT INTO echo_requests`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectCommit()

	req := &models.EchoRequest{
		Pathway:      models.PathwayRed,
		RequestTime:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		ExpectedTime: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
		TriageDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	yearRef := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(context.Background(), req, yearRef))
	assert.Equal(t, "25.0013", req.DisplayID)
	assert.EqualValues(t, 101, req.ID)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(CAST\(split_part`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO echo_requests`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	req := &models.EchoRequest{Pathway: models.PathwayPurple}
	err := repo.Create(context.Background(), req, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCompletedRequiresExistingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectExec(`UPDATE echo_requests SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkCompleted(context.Background(), 99, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUndoCompletedClearsCompletionTime(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectExec(`UPDATE echo_requests SET status = \$2, completion_time = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UndoCompleted(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRequest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectExec(`DELETE FROM echo_requests WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFieldTargetsColumn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectExec(`UPDATE echo_requests SET ward = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateField(context.Background(), 5, models.FieldWard, "CCU"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFieldRejectsUnknownColumn(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewRequestRepository(db)

	err := repo.UpdateField(context.Background(), 5, models.RequestField("status"), "completed")
	require.Error(t, err)
}

func TestListReturnsRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	rows := sqlmock.NewRows([]string{"id", "display_id", "pathway", "request_time", "expected_time", "status", "triage_date", "completion_time", "notes", "patient_name", "mrn", "ward", "created_at", "updated_at"}).
		AddRow(1, "25.0001", "RED", time.Now(), time.Now(), "pending", time.Now(), nil, "", "", "", "", time.Now(), time.Now())
	mock.ExpectQuery(`SELECT .+ FROM echo_requests ORDER BY id`).WillReturnRows(rows)

	result, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "25.0001", result[0].DisplayID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
