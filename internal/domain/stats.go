package domain

import "time"

// DayStats holds the stats for puzzles printed on one weekday
//
// Times are in seconds. Zero times and empty dates mean no data.
type DayStats struct {
	AverageSolveTime float64
	BestSolveTime    int
	BestDate         string
	ThisWeeksTime    int
	ThisWeeksDate    string
}

type WeekdayStats struct {
	Day   time.Weekday
	Stats DayStats
}

type UserStats struct {
	UserID   string
	Username string

	AverageSolveTime   float64
	TotalPuzzlesSolved int
	CurrentStreak      int
	LongestStreak      int
	// Fraction in [0, 1]
	AutoCompletePct float64

	// Ordered from the start of the week
	StatsByDay []WeekdayStats
}
