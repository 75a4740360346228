package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/echotrack/echotrack-api/internal/models"
)

// StatsRepository runs the aggregate queries behind the statistics endpoints.
// Day bucketing of timestamptz columns always happens in the reference
// timezone, passed as a zone name to AT TIME ZONE.
type StatsRepository struct {
	db       *sqlx.DB
	timezone string
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB, timezone string) *StatsRepository {
	if timezone == "" {
		timezone = "Europe/London"
	}
	return &StatsRepository{db: db, timezone: timezone}
}

// CountsByTriageDate groups creations by triage date and pathway inside the
// inclusive date range.
func (r *StatsRepository) CountsByTriageDate(ctx context.Context, from, to time.Time) ([]models.DatePathwayCount, error) {
	query := `SELECT triage_date AS date, pathway, COUNT(*) AS count
FROM echo_requests
WHERE triage_date >= $1 AND triage_date <= $2
GROUP BY triage_date, pathway`
	var rows []models.DatePathwayCount
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("counts by triage date: %w", err)
	}
	return rows, nil
}

// CountsByCompletionDate groups completed requests by completion date inside
// the inclusive date range.
func (r *StatsRepository) CountsByCompletionDate(ctx context.Context, from, to time.Time) ([]models.DateCount, error) {
	query := `SELECT DATE(completion_time AT TIME ZONE $3) AS date, COUNT(*) AS count
FROM echo_requests
WHERE status = $4
  AND completion_time IS NOT NULL
  AND DATE(completion_time AT TIME ZONE $3) >= $1
  AND DATE(completion_time AT TIME ZONE $3) <= $2
GROUP BY DATE(completion_time AT TIME ZONE $3)`
	var rows []models.DateCount
	if err := r.db.SelectContext(ctx, &rows, query, from, to, r.timezone, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("counts by completion date: %w", err)
	}
	return rows, nil
}

// SLARows returns the timestamp tuple of every timed-pathway request. The
// stats service replays these rows to reconstruct per-day overdue and
// pending counts.
func (r *StatsRepository) SLARows(ctx context.Context) ([]models.SLARow, error) {
	query := `SELECT id, request_time, expected_time, status, completion_time
FROM echo_requests
WHERE pathway IN ($1, $2, $3)`
	var rows []models.SLARow
	if err := r.db.SelectContext(ctx, &rows, query, models.PathwayPurple, models.PathwayRed, models.PathwayAmber); err != nil {
		return nil, fmt.Errorf("sla rows: %w", err)
	}
	return rows, nil
}

// CurrentOverdueCount counts pending timed requests whose deadline has passed.
func (r *StatsRepository) CurrentOverdueCount(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*)
FROM echo_requests
WHERE status = $1
  AND pathway IN ($2, $3, $4)
  AND expected_time < $5
  AND request_time <= $5`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.StatusPending, models.PathwayPurple, models.PathwayRed, models.PathwayAmber, now); err != nil {
		return 0, fmt.Errorf("current overdue count: %w", err)
	}
	return count, nil
}

// PendingByPathway counts all pending timed requests per pathway.
func (r *StatsRepository) PendingByPathway(ctx context.Context) ([]models.PathwayCount, error) {
	query := `SELECT pathway, COUNT(*) AS count
FROM echo_requests
WHERE status = $1 AND pathway IN ($2, $3, $4)
GROUP BY pathway`
	var rows []models.PathwayCount
	if err := r.db.SelectContext(ctx, &rows, query, models.StatusPending, models.PathwayPurple, models.PathwayRed, models.PathwayAmber); err != nil {
		return nil, fmt.Errorf("pending by pathway: %w", err)
	}
	return rows, nil
}

// PerformedOn counts requests completed on the given calendar day.
func (r *StatsRepository) PerformedOn(ctx context.Context, day time.Time) (int, error) {
	query := `SELECT COUNT(*)
FROM echo_requests
WHERE status = $1 AND DATE(completion_time AT TIME ZONE $3) = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.StatusCompleted, day, r.timezone); err != nil {
		return 0, fmt.Errorf("performed on day: %w", err)
	}
	return count, nil
}

// GreenCreatedOn counts green and rejected requests raised on the given day.
func (r *StatsRepository) GreenCreatedOn(ctx context.Context, day time.Time) (int, error) {
	query := `SELECT COUNT(*)
FROM echo_requests
WHERE pathway IN ($2, $3) AND DATE(request_time AT TIME ZONE $4) = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, day, models.PathwayGreen, models.PathwayRejected, r.timezone); err != nil {
		return 0, fmt.Errorf("green created on day: %w", err)
	}
	return count, nil
}

// OverdueNow counts pending timed requests past their deadline. Unlike
// CurrentOverdueCount it carries no request-time bound; the dashboard header
// has always used this wider variant.
func (r *StatsRepository) OverdueNow(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*)
FROM echo_requests
WHERE status = $1
  AND pathway IN ($2, $3, $4)
  AND expected_time < $5`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.StatusPending, models.PathwayPurple, models.PathwayRed, models.PathwayAmber, now); err != nil {
		return 0, fmt.Errorf("overdue now: %w", err)
	}
	return count, nil
}

// AverageCompletionHours computes the mean elapsed hours from request to
// completion per timed pathway over completions in the inclusive date range.
// Pairs with either endpoint on a weekend contribute zero hours to the mean.
func (r *StatsRepository) AverageCompletionHours(ctx context.Context, from, to time.Time) ([]models.PathwayAverage, error) {
	query := `SELECT pathway,
AVG(CASE
    WHEN EXTRACT(DOW FROM request_time AT TIME ZONE $3) IN (0, 6)
      OR EXTRACT(DOW FROM completion_time AT TIME ZONE $3) IN (0, 6)
    THEN 0
    ELSE EXTRACT(EPOCH FROM (completion_time - request_time)) / 3600.0
END) AS avg_hours
FROM echo_requests
WHERE status = $4
  AND pathway IN ($5, $6, $7)
  AND completion_time IS NOT NULL
  AND DATE(completion_time AT TIME ZONE $3) >= $1
  AND DATE(completion_time AT TIME ZONE $3) <= $2
GROUP BY pathway`
	var rows []models.PathwayAverage
	if err := r.db.SelectContext(ctx, &rows, query, from, to, r.timezone, models.StatusCompleted, models.PathwayPurple, models.PathwayRed, models.PathwayAmber); err != nil {
		return nil, fmt.Errorf("average completion hours: %w", err)
	}
	return rows, nil
}
