package domain

import (
	"fmt"
	"time"
)

// DateRange is an optional, inclusive range of calendar dates
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func NewDateRange(start, end *time.Time) (DateRange, error) {
	var r DateRange
	if start != nil {
		s := TruncateToDay(*start)
		r.Start = &s
	}
	if end != nil {
		e := TruncateToDay(*end)
		r.End = &e
	}
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s", FormatDate(*r.Start), FormatDate(*r.End))
	}
	return r, nil
}

// Contains reports whether the calendar date of t lies within the range
func (r DateRange) Contains(t time.Time) bool {
	day := TruncateToDay(t)
	if r.Start != nil && day.Before(*r.Start) {
		return false
	}
	if r.End != nil && day.After(*r.End) {
		return false
	}
	return true
}

// String is used for cache keys and logging
func (r DateRange) String() string {
	start, end := "-", "-"
	if r.Start != nil {
		start = FormatDate(*r.Start)
	}
	if r.End != nil {
		end = FormatDate(*r.End)
	}
	return fmt.Sprintf("%s..%s", start, end)
}
