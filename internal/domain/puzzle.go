package domain

import "time"

// PublishType of the puzzles the stats are computed over
const PublishTypeMini = "mini"

// DateLayout is the calendar date format used in requests and responses
const DateLayout = "2006-01-02"

type Puzzle struct {
	PuzzleID int
	// Calendar date at midnight UTC
	PrintDate   time.Time
	PublishType string

	Author     string
	Editor     string
	Title      string
	FormatType string
}

// TruncateToDay returns midnight UTC of the calendar day t falls on in UTC
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate formats a date as YYYY-MM-DD, or the empty string for the zero time
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
