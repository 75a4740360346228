package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/echotrack/echotrack-api/internal/dto"
	"github.com/echotrack/echotrack-api/internal/models"
	"github.com/echotrack/echotrack-api/pkg/config"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
)

// StatsRepository is the aggregate-query surface used by StatsService.
type StatsRepository interface {
	CountsByTriageDate(ctx context.Context, from, to time.Time) ([]models.DatePathwayCount, error)
	CountsByCompletionDate(ctx context.Context, from, to time.Time) ([]models.DateCount, error)
	SLARows(ctx context.Context) ([]models.SLARow, error)
	CurrentOverdueCount(ctx context.Context, now time.Time) (int, error)
	PendingByPathway(ctx context.Context) ([]models.PathwayCount, error)
	PerformedOn(ctx context.Context, day time.Time) (int, error)
	GreenCreatedOn(ctx context.Context, day time.Time) (int, error)
	OverdueNow(ctx context.Context, now time.Time) (int, error)
	AverageCompletionHours(ctx context.Context, from, to time.Time) ([]models.PathwayAverage, error)
}

// StatsService computes dashboard statistics. Historical per-day figures are
// reconstructed from the current request table, so a completion that is later
// undone shifts past days retroactively. That approximation is inherent to
// storing only current state.
type StatsService struct {
	repo    StatsRepository
	cache   *CacheService
	cal     *WorkingCalendar
	metrics *MetricsService
	logger  *zap.Logger

	windowDays int
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewStatsService builds the statistics service.
func NewStatsService(repo StatsRepository, cache *CacheService, cal *WorkingCalendar, metrics *MetricsService, logger *zap.Logger, cfg config.StatsConfig) *StatsService {
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	return &StatsService{
		repo:       repo,
		cache:      cache,
		cal:        cal,
		metrics:    metrics,
		logger:     logger,
		windowDays: windowDays,
		cacheTTL:   cfg.CacheTTL,
		now:        cal.Now,
	}
}

// window returns the inclusive date bounds of the trailing window ending today.
func (s *StatsService) window(days int) (from, to time.Time) {
	to = DateOf(s.now())
	from = to.AddDate(0, 0, -(days - 1))
	return from, to
}

// effectiveWindow resolves a per-request override against the configured
// window size.
func (s *StatsService) effectiveWindow(windowDays int) int {
	if windowDays > 0 {
		return windowDays
	}
	return s.windowDays
}

// eachDay calls fn with the reference-timezone start of every day in [from, to].
func (s *StatsService) eachDay(from, to time.Time, fn func(dayStart time.Time)) {
	loc := s.cal.Location()
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		fn(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc))
	}
}

// DailyStats returns per-day creation counts by pathway plus performed counts
// over the trailing window. A positive windowDays overrides the configured
// window. Days without activity are zero-filled. The bool reports whether the
// result came from cache.
func (s *StatsService) DailyStats(ctx context.Context, windowDays int) (dto.DailyStatsResponse, bool, error) {
	days := s.effectiveWindow(windowDays)
	cacheKey := fmt.Sprintf("stats:daily:%d", days)
	cached := dto.DailyStatsResponse{}
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	from, to := s.window(days)
	result := make(dto.DailyStatsResponse, days)
	s.eachDay(from, to, func(dayStart time.Time) {
		result[dayStart.Format("2006-01-02")] = dto.DayBuckets{}
	})

	start := time.Now()
	created, err := s.repo.CountsByTriageDate(ctx, from, to)
	if err != nil {
		return nil, false, s.storageError(err, "load daily creation counts")
	}
	s.metrics.ObserveDBQuery("counts_by_triage_date", time.Since(start))

	for _, row := range created {
		key := row.Date.Format("2006-01-02")
		buckets, ok := result[key]
		if !ok {
			continue
		}
		switch row.Pathway {
		case models.PathwayPurple:
			buckets.Purple = row.Count
		case models.PathwayRed:
			buckets.Red = row.Count
		case models.PathwayAmber:
			buckets.Amber = row.Count
		case models.PathwayGreen:
			buckets.Green = row.Count
		case models.PathwayRejected:
			buckets.Rejected = row.Count
		}
		result[key] = buckets
	}

	start = time.Now()
	performed, err := s.repo.CountsByCompletionDate(ctx, from, to)
	if err != nil {
		return nil, false, s.storageError(err, "load daily performed counts")
	}
	s.metrics.ObserveDBQuery("counts_by_completion_date", time.Since(start))

	for _, row := range performed {
		key := row.Date.Format("2006-01-02")
		if buckets, ok := result[key]; ok {
			buckets.Performed = row.Count
			result[key] = buckets
		}
	}

	s.cache.Set(ctx, cacheKey, result, s.cacheTTL)
	return result, false, nil
}

// DailyOverdue reconstructs, for each day in the window, how many timed
// requests were overdue as of the end of that day. A positive windowDays
// overrides the configured window.
func (s *StatsService) DailyOverdue(ctx context.Context, windowDays int) (dto.DailyCountResponse, bool, error) {
	days := s.effectiveWindow(windowDays)
	cacheKey := fmt.Sprintf("stats:daily_overdue:%d", days)
	cached := dto.DailyCountResponse{}
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	rows, err := s.slaRows(ctx)
	if err != nil {
		return nil, false, err
	}

	from, to := s.window(days)
	result := make(dto.DailyCountResponse, days)
	s.eachDay(from, to, func(dayStart time.Time) {
		dayEnd := dayStart.AddDate(0, 0, 1)
		count := 0
		for i := range rows {
			if overdueAsOf(&rows[i], dayStart, dayEnd) {
				count++
			}
		}
		result[dayStart.Format("2006-01-02")] = count
	})

	s.cache.Set(ctx, cacheKey, result, s.cacheTTL)
	return result, false, nil
}

// DailyPending reconstructs, for each day in the window, how many timed
// requests were still awaiting completion at the end of that day. A positive
// windowDays overrides the configured window.
func (s *StatsService) DailyPending(ctx context.Context, windowDays int) (dto.DailyCountResponse, bool, error) {
	days := s.effectiveWindow(windowDays)
	cacheKey := fmt.Sprintf("stats:daily_pending:%d", days)
	cached := dto.DailyCountResponse{}
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	rows, err := s.slaRows(ctx)
	if err != nil {
		return nil, false, err
	}

	from, to := s.window(days)
	result := make(dto.DailyCountResponse, days)
	s.eachDay(from, to, func(dayStart time.Time) {
		dayEnd := dayStart.AddDate(0, 0, 1)
		count := 0
		for i := range rows {
			if pendingAsOf(&rows[i], dayStart, dayEnd) {
				count++
			}
		}
		result[dayStart.Format("2006-01-02")] = count
	})

	s.cache.Set(ctx, cacheKey, result, s.cacheTTL)
	return result, false, nil
}

// CurrentOverdue counts timed requests past their deadline right now and
// refreshes the overdue gauge.
func (s *StatsService) CurrentOverdue(ctx context.Context) (dto.OverdueCountResponse, error) {
	start := time.Now()
	count, err := s.repo.CurrentOverdueCount(ctx, s.now())
	if err != nil {
		return dto.OverdueCountResponse{}, s.storageError(err, "count overdue requests")
	}
	s.metrics.ObserveDBQuery("current_overdue_count", time.Since(start))
	s.metrics.SetOverdueRequests(count)
	return dto.OverdueCountResponse{OverdueCount: count}, nil
}

// TodayStats summarises the dashboard header. The pathway buckets count every
// still-pending timed request regardless of age; the green bucket counts
// green and rejected requests created today.
func (s *StatsService) TodayStats(ctx context.Context) (dto.TodayStatsResponse, bool, error) {
	const cacheKey = "stats:today"
	cached := dto.TodayStatsResponse{}
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	resp := dto.TodayStatsResponse{}
	today := s.cal.Today()

	start := time.Now()
	pending, err := s.repo.PendingByPathway(ctx)
	if err != nil {
		return resp, false, s.storageError(err, "load pending counts")
	}
	s.metrics.ObserveDBQuery("pending_by_pathway", time.Since(start))
	for _, row := range pending {
		switch row.Pathway {
		case models.PathwayPurple:
			resp.Purple = row.Count
		case models.PathwayRed:
			resp.Red = row.Count
		case models.PathwayAmber:
			resp.Amber = row.Count
		}
	}

	start = time.Now()
	resp.Green, err = s.repo.GreenCreatedOn(ctx, today)
	if err != nil {
		return resp, false, s.storageError(err, "count green requests")
	}
	s.metrics.ObserveDBQuery("green_created_on", time.Since(start))

	start = time.Now()
	resp.Performed, err = s.repo.PerformedOn(ctx, today)
	if err != nil {
		return resp, false, s.storageError(err, "count performed requests")
	}
	s.metrics.ObserveDBQuery("performed_on", time.Since(start))

	start = time.Now()
	resp.Overdue, err = s.repo.OverdueNow(ctx, s.now())
	if err != nil {
		return resp, false, s.storageError(err, "count overdue requests")
	}
	s.metrics.ObserveDBQuery("overdue_now", time.Since(start))
	s.metrics.SetOverdueRequests(resp.Overdue)

	s.cache.Set(ctx, cacheKey, resp, s.cacheTTL)
	return resp, false, nil
}

// AverageCompletionTimes reports mean completion hours per timed pathway over
// the trailing window, rounded to whole hours. Requests touching a weekend
// contribute zero hours, which drags the averages down.
func (s *StatsService) AverageCompletionTimes(ctx context.Context) (dto.AverageCompletionResponse, bool, error) {
	const cacheKey = "stats:avg_completion"
	cached := dto.AverageCompletionResponse{}
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	to := DateOf(s.now())
	from := to.AddDate(0, 0, 1-s.windowDays)

	start := time.Now()
	rows, err := s.repo.AverageCompletionHours(ctx, from, to)
	if err != nil {
		return dto.AverageCompletionResponse{}, false, s.storageError(err, "load average completion times")
	}
	s.metrics.ObserveDBQuery("average_completion_hours", time.Since(start))

	resp := dto.AverageCompletionResponse{}
	for _, row := range rows {
		hours := math.Round(row.AvgHours)
		switch row.Pathway {
		case models.PathwayPurple:
			resp.Purple = hours
		case models.PathwayRed:
			resp.Red = hours
		case models.PathwayAmber:
			resp.Amber = hours
		}
	}

	s.cache.Set(ctx, cacheKey, resp, s.cacheTTL)
	return resp, false, nil
}

func (s *StatsService) slaRows(ctx context.Context) ([]models.SLARow, error) {
	start := time.Now()
	rows, err := s.repo.SLARows(ctx)
	if err != nil {
		return nil, s.storageError(err, "load timed requests")
	}
	s.metrics.ObserveDBQuery("sla_rows", time.Since(start))
	return rows, nil
}

func (s *StatsService) storageError(err error, action string) error {
	return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, action)
}

// overdueAsOf reports whether the request was overdue at the end of the day
// beginning at dayStart. A request counts when its deadline fell within the
// day and it had not been completed on time by then: it is still pending now,
// it was completed after the day started, or it was completed during the day
// but past its deadline.
func overdueAsOf(row *models.SLARow, dayStart, dayEnd time.Time) bool {
	if !row.ExpectedTime.Before(dayEnd) {
		return false
	}
	if row.RequestTime.After(dayEnd) {
		return false
	}
	if row.Status == models.StatusPending {
		return true
	}
	if row.CompletionTime == nil {
		return false
	}
	c := *row.CompletionTime
	if c.After(dayStart) {
		return true
	}
	if !c.Before(dayStart) && c.Before(dayEnd) && c.After(row.ExpectedTime) {
		return true
	}
	return false
}

// pendingAsOf reports whether the request had been raised by the end of the
// day and was not yet completed at its start.
func pendingAsOf(row *models.SLARow, dayStart, dayEnd time.Time) bool {
	if row.RequestTime.After(dayEnd) {
		return false
	}
	if row.Status == models.StatusPending {
		return true
	}
	return row.CompletionTime != nil && !row.CompletionTime.Before(dayStart)
}
