package domain

import "time"

// Solution is one user's attempt at one puzzle
//
// SecondsSpentSolving and AutocheckEnabled are only meaningful when Solved is true
type Solution struct {
	UserID   string
	PuzzleID int

	Solved              bool
	SecondsSpentSolving int
	PercentFilled       int
	AutocheckEnabled    bool

	QueriedAt time.Time
}

// EnrichedSolution is a Solution annotated with the print date of its puzzle
type EnrichedSolution struct {
	Solution
	PrintDate time.Time
}
