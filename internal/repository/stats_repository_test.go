package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotrack/echotrack-api/internal/models"
)

func TestCurrentOverdueCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepository(db, "Europe/London")

	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(models.StatusPending, models.PathwayPurple, models.PathwayRed, models.PathwayAmber, now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CurrentOverdueCount(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountsByTriageDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepository(db, "Europe/London")

	day := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"date", "pathway", "count"}).
		AddRow(day, "RED", 2).
		AddRow(day, "GREEN", 1)
	mock.ExpectQuery(`SELECT triage_date AS date, pathway, COUNT\(\*\)`).
		WillReturnRows(rows)

	result, err := repo.CountsByTriageDate(context.Background(), day.AddDate(0, 0, -7), day)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, models.PathwayRed, result[0].Pathway)
	assert.Equal(t, 2, result[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSLARowsSelectsTimedPathwaysOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepository(db, "Europe/London")

	mock.ExpectQuery(`SELECT id, request_time, expected_time, status, completion_time`).
		WithArgs(models.PathwayPurple, models.PathwayRed, models.PathwayAmber).
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_time", "expected_time", "status", "completion_time"}).
			AddRow(1, time.Now(), time.Now(), "pending", nil))

	rows, err := repo.SLARows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].CompletionTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAverageCompletionHours(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepository(db, "Europe/London")

	mock.ExpectQuery(`AVG\(CASE`).
		WillReturnRows(sqlmock.NewRows([]string{"pathway", "avg_hours"}).
			AddRow("RED", 23.6).
			AddRow("AMBER", 41.2))

	rows, err := repo.AverageCompletionHours(context.Background(),
		time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 23.6, rows[0].AvgHours, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
