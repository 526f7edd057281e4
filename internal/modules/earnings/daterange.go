// README: Inclusive calendar-day ranges used to filter trips for reports.
package earnings

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("end date before start date")

// DateRange is inclusive on both ends. The zero value matches every time.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange widens start to 00:00:00.000 and end to 23:59:59.999 of their
// calendar days in loc. A zero start or end leaves that side open.
func NewDateRange(start, end time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	var r DateRange
	if !start.IsZero() {
		s := start.In(loc)
		r.Start = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	}
	if !end.IsZero() {
		e := end.In(loc)
		r.End = time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return DateRange{}, ErrInvalidRange
	}
	return r, nil
}

// ParseDateRange reads YYYY-MM-DD bounds; empty strings leave a side open.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.ParseInLocation(time.DateOnly, start, loc); err != nil {
			return DateRange{}, err
		}
	}
	if end != "" {
		if e, err = time.ParseInLocation(time.DateOnly, end, loc); err != nil {
			return DateRange{}, err
		}
	}
	return NewDateRange(s, e, loc)
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}
