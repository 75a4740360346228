package models

import "time"

// DatePathwayCount is one row of the triage-date grouping.
type DatePathwayCount struct {
	Date    time.Time `db:"date"`
	Pathway Pathway   `db:"pathway"`
	Count   int       `db:"count"`
}

// DateCount is one row of a per-day grouping.
type DateCount struct {
	Date  time.Time `db:"date"`
	Count int       `db:"count"`
}

// PathwayCount is one row of a per-pathway grouping.
type PathwayCount struct {
	Pathway Pathway `db:"pathway"`
	Count   int     `db:"count"`
}

// PathwayAverage is one row of the average completion grouping.
type PathwayAverage struct {
	Pathway  Pathway `db:"pathway"`
	AvgHours float64 `db:"avg_hours"`
}

// SLARow carries the timestamps needed to reconstruct the state of a timed
// request as of a past day. Only SLA-bearing pathways are included.
type SLARow struct {
	ID             int64         `db:"id"`
	RequestTime    time.Time     `db:"request_time"`
	ExpectedTime   time.Time     `db:"expected_time"`
	Status         RequestStatus `db:"status"`
	CompletionTime *time.Time    `db:"completion_time"`
}
