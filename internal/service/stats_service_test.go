package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/echotrack/echotrack-api/internal/models"
	"github.com/echotrack/echotrack-api/pkg/config"
)

type fakeStatsRepo struct {
	created   []models.DatePathwayCount
	performed []models.DateCount
	slaRows   []models.SLARow
	pending   []models.PathwayCount
	averages  []models.PathwayAverage

	currentOverdue int
	overdueNow     int
	performedToday int
	greenToday     int

	avgFrom time.Time
	avgTo   time.Time
}

func (f *fakeStatsRepo) CountsByTriageDate(context.Context, time.Time, time.Time) ([]models.DatePathwayCount, error) {
	return f.created, nil
}

func (f *fakeStatsRepo) CountsByCompletionDate(context.Context, time.Time, time.Time) ([]models.DateCount, error) {
	return f.performed, nil
}

func (f *fakeStatsRepo) SLARows(context.Context) ([]models.SLARow, error) {
	return f.slaRows, nil
}

func (f *fakeStatsRepo) CurrentOverdueCount(context.Context, time.Time) (int, error) {
	return f.currentOverdue, nil
}

func (f *fakeStatsRepo) PendingByPathway(context.Context) ([]models.PathwayCount, error) {
	return f.pending, nil
}

func (f *fakeStatsRepo) PerformedOn(context.Context, time.Time) (int, error) {
	return f.performedToday, nil
}

func (f *fakeStatsRepo) GreenCreatedOn(context.Context, time.Time) (int, error) {
	return f.greenToday, nil
}

func (f *fakeStatsRepo) OverdueNow(context.Context, time.Time) (int, error) {
	return f.overdueNow, nil
}

func (f *fakeStatsRepo) AverageCompletionHours(_ context.Context, from, to time.Time) ([]models.PathwayAverage, error) {
	f.avgFrom = from
	f.avgTo = to
	return f.averages, nil
}

func newStatsService(t *testing.T, repo *fakeStatsRepo, windowDays int, now time.Time) *StatsService {
	t.Helper()
	cal := newTestCalendar(t)
	metrics := NewMetricsService()
	cache := NewCacheService(nil, metrics, zap.NewNop(), false)
	svc := NewStatsService(repo, cache, cal, metrics, zap.NewNop(), config.StatsConfig{WindowDays: windowDays})
	svc.now = func() time.Time { return now }
	return svc
}

func day(t *testing.T, date string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	return parsed
}

func TestDailyStatsZeroFillsWindow(t *testing.T) {
	repo := &fakeStatsRepo{
		created: []models.DatePathwayCount{
			{Date: day(t, "2025-03-11"), Pathway: models.PathwayRed, Count: 2},
			{Date: day(t, "2025-03-11"), Pathway: models.PathwayRejected, Count: 1},
		},
		performed: []models.DateCount{
			{Date: day(t, "2025-03-12"), Count: 3},
		},
	}
	svc := newStatsService(t, repo, 3, londonTime(t, "2025-03-12 12:00"))

	stats, cached, err := svc.DailyStats(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, stats, 3)

	assert.Zero(t, stats["2025-03-10"])
	assert.Equal(t, 2, stats["2025-03-11"].Red)
	assert.Equal(t, 1, stats["2025-03-11"].Rejected)
	assert.Equal(t, 3, stats["2025-03-12"].Performed)
}

func TestDailyOverdueReconstructsPastDays(t *testing.T) {
	longPending := models.SLARow{
		ID:           1,
		RequestTime:  londonTime(t, "2025-03-03 09:00"),
		ExpectedTime: londonTime(t, "2025-03-04 09:00"),
		Status:       models.StatusPending,
	}
	onTimeCompletion := londonTime(t, "2025-03-11 08:00")
	completed := models.SLARow{
		ID:             2,
		RequestTime:    londonTime(t, "2025-03-10 09:00"),
		ExpectedTime:   londonTime(t, "2025-03-11 09:00"),
		Status:         models.StatusCompleted,
		CompletionTime: &onTimeCompletion,
	}
	repo := &fakeStatsRepo{slaRows: []models.SLARow{longPending, completed}}
	svc := newStatsService(t, repo, 3, londonTime(t, "2025-03-12 12:00"))

	overdue, cached, err := svc.DailyOverdue(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, cached)

	assert.Equal(t, 1, overdue["2025-03-10"])
	assert.Equal(t, 2, overdue["2025-03-11"])
	assert.Equal(t, 1, overdue["2025-03-12"])
}

// A completion that is undone leaves the row pending with no completion time,
// so the reconstruction retroactively counts it overdue on the days after its
// deadline. That is the accepted cost of storing only current state.
func TestDailyOverdueShiftsAfterUndo(t *testing.T) {
	undone := models.SLARow{
		ID:           1,
		RequestTime:  londonTime(t, "2025-03-10 09:00"),
		ExpectedTime: londonTime(t, "2025-03-10 10:00"),
		Status:       models.StatusPending,
	}
	repo := &fakeStatsRepo{slaRows: []models.SLARow{undone}}
	svc := newStatsService(t, repo, 3, londonTime(t, "2025-03-12 12:00"))

	overdue, _, err := svc.DailyOverdue(context.Background(), 0)
	require.NoError(t, err)

	for _, date := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		assert.Equal(t, 1, overdue[date], "day %s", date)
	}
}

func TestDailyPendingCountsUntilCompletionDay(t *testing.T) {
	completion := londonTime(t, "2025-03-11 08:00")
	rows := []models.SLARow{
		{ID: 1, RequestTime: londonTime(t, "2025-03-03 09:00"), ExpectedTime: londonTime(t, "2025-03-04 09:00"), Status: models.StatusPending},
		{ID: 2, RequestTime: londonTime(t, "2025-03-10 09:00"), ExpectedTime: londonTime(t, "2025-03-11 09:00"), Status: models.StatusCompleted, CompletionTime: &completion},
	}
	repo := &fakeStatsRepo{slaRows: rows}
	svc := newStatsService(t, repo, 3, londonTime(t, "2025-03-12 12:00"))

	pending, _, err := svc.DailyPending(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, pending["2025-03-10"])
	assert.Equal(t, 2, pending["2025-03-11"])
	assert.Equal(t, 1, pending["2025-03-12"])
}

func TestDailyOverdueHonoursWindowOverride(t *testing.T) {
	row := models.SLARow{
		ID:           1,
		RequestTime:  londonTime(t, "2025-03-03 09:00"),
		ExpectedTime: londonTime(t, "2025-03-04 09:00"),
		Status:       models.StatusPending,
	}
	repo := &fakeStatsRepo{slaRows: []models.SLARow{row}}
	svc := newStatsService(t, repo, 30, londonTime(t, "2025-03-12 12:00"))

	overdue, _, err := svc.DailyOverdue(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, 1, overdue["2025-03-11"])
	assert.Equal(t, 1, overdue["2025-03-12"])
}

func TestDailyPendingHonoursWindowOverride(t *testing.T) {
	row := models.SLARow{
		ID:           1,
		RequestTime:  londonTime(t, "2025-03-03 09:00"),
		ExpectedTime: londonTime(t, "2025-03-04 09:00"),
		Status:       models.StatusPending,
	}
	repo := &fakeStatsRepo{slaRows: []models.SLARow{row}}
	svc := newStatsService(t, repo, 30, londonTime(t, "2025-03-12 12:00"))

	pending, _, err := svc.DailyPending(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending["2025-03-11"])
	assert.Equal(t, 1, pending["2025-03-12"])
}

func TestTodayStatsComposition(t *testing.T) {
	repo := &fakeStatsRepo{
		pending: []models.PathwayCount{
			{Pathway: models.PathwayPurple, Count: 1},
			{Pathway: models.PathwayRed, Count: 4},
			{Pathway: models.PathwayAmber, Count: 7},
		},
		greenToday:     2,
		performedToday: 5,
		overdueNow:     3,
	}
	svc := newStatsService(t, repo, 30, londonTime(t, "2025-03-12 12:00"))

	stats, cached, err := svc.TodayStats(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)

	assert.Equal(t, 1, stats.Purple)
	assert.Equal(t, 4, stats.Red)
	assert.Equal(t, 7, stats.Amber)
	assert.Equal(t, 2, stats.Green)
	assert.Equal(t, 5, stats.Performed)
	assert.Equal(t, 3, stats.Overdue)
}

func TestCurrentOverdueCount(t *testing.T) {
	repo := &fakeStatsRepo{currentOverdue: 6}
	svc := newStatsService(t, repo, 30, londonTime(t, "2025-03-12 12:00"))

	resp, err := svc.CurrentOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, resp.OverdueCount)
}

func TestAverageCompletionTimesRoundsToWholeHours(t *testing.T) {
	repo := &fakeStatsRepo{averages: []models.PathwayAverage{
		{Pathway: models.PathwayPurple, AvgHours: 2.4},
		{Pathway: models.PathwayRed, AvgHours: 23.6},
	}}
	svc := newStatsService(t, repo, 30, londonTime(t, "2025-03-12 12:00"))

	resp, _, err := svc.AverageCompletionTimes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(2), resp.Purple)
	assert.Equal(t, float64(24), resp.Red)
	assert.Zero(t, resp.Amber)
}

func TestAverageCompletionWindowEndsToday(t *testing.T) {
	repo := &fakeStatsRepo{}
	svc := newStatsService(t, repo, 30, londonTime(t, "2025-03-12 12:00"))

	_, _, err := svc.AverageCompletionTimes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2025-03-12", repo.avgTo.Format("2006-01-02"))
	assert.Equal(t, "2025-02-11", repo.avgFrom.Format("2006-01-02"))
}
