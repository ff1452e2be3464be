package periods

import "time"

// Status enumerates reporting period states.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusAdjusting Status = "ADJUSTING"
	StatusClosed    Status = "CLOSED"
)

// ReportingPeriod is a fiscal year window gating what may be recorded.
type ReportingPeriod struct {
	ID           int64
	EntityID     int64
	CalendarYear int
	PeriodCount  int
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Interval bounds a reporting period.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Interval returns the calendar year window of the period.
func (p ReportingPeriod) Interval() Interval {
	return YearInterval(p.CalendarYear)
}

// YearInterval returns the UTC window of a calendar year.
func YearInterval(year int) Interval {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Interval{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Microsecond)}
}
