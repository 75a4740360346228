package service

import (
	"fmt"
	"time"

	"github.com/echotrack/echotrack-api/internal/models"
	"github.com/echotrack/echotrack-api/pkg/config"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
)

// WorkingCalendar answers non-working-day questions and computes
// working-hours deadlines in the reference timezone. The holiday set is fixed
// at construction; the calendar is safe for concurrent use.
type WorkingCalendar struct {
	loc      *time.Location
	holidays map[string]struct{}
}

// NewWorkingCalendar loads the reference timezone and indexes the configured
// bank-holiday dates (ISO YYYY-MM-DD).
func NewWorkingCalendar(cfg config.CalendarConfig) (*WorkingCalendar, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "Europe/London"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	holidays := make(map[string]struct{}, len(cfg.BankHolidays))
	for _, day := range cfg.BankHolidays {
		holidays[day] = struct{}{}
	}
	return &WorkingCalendar{loc: loc, holidays: holidays}, nil
}

// Location exposes the reference timezone.
func (c *WorkingCalendar) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the reference timezone.
func (c *WorkingCalendar) Now() time.Time {
	return time.Now().In(c.loc)
}

// Today returns the current calendar date in the reference timezone, at
// midnight UTC so it maps cleanly onto DATE columns.
func (c *WorkingCalendar) Today() time.Time {
	return DateOf(c.Now())
}

// DateOf truncates a timestamp to its calendar date in the timestamp's own
// location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsNonWorkingDay reports whether the timestamp's date in the reference
// timezone is a Saturday, a Sunday, or a configured bank holiday.
func (c *WorkingCalendar) IsNonWorkingDay(t time.Time) bool {
	t = t.In(c.loc)
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return true
	}
	_, ok := c.holidays[t.Format("2006-01-02")]
	return ok
}

// AddWorkingHours advances start one hour at a time; an hour is consumed only
// when the resulting timestamp lands on a working day. Sub-hour offsets of
// start are preserved since every step adds exactly one hour.
func (c *WorkingCalendar) AddWorkingHours(start time.Time, hours int) (time.Time, error) {
	if hours < 0 {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "working hours must not be negative")
	}
	current := start.In(c.loc)
	remaining := hours
	for remaining > 0 {
		current = current.Add(time.Hour)
		if !c.IsNonWorkingDay(current) {
			remaining--
		}
	}
	return current, nil
}

// Deadline computes the expected completion time for a pathway. Pathways
// without an SLA keep the request time as their expected time.
func (c *WorkingCalendar) Deadline(pathway models.Pathway, requestTime time.Time) (time.Time, error) {
	hours := pathway.SLAHours()
	if hours == 0 {
		return requestTime.In(c.loc), nil
	}
	return c.AddWorkingHours(requestTime, hours)
}

// ParseTimestamp reads an ISO timestamp. Offsets (including Z) are honoured
// and converted to the reference timezone; timestamps without an offset are
// taken as reference-timezone wall-clock time, not reinterpreted.
func (c *WorkingCalendar) ParseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(c.loc), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, c.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", raw)
}
