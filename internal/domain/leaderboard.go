package domain

import "fmt"

type LeaderboardKind int

const (
	LeaderboardAverageSpeed LeaderboardKind = iota
	LeaderboardPuzzlesSolved
	LeaderboardLongestStreak
)

func (k LeaderboardKind) String() string {
	switch k {
	case LeaderboardAverageSpeed:
		return "average-speed"
	case LeaderboardPuzzlesSolved:
		return "puzzles-solved"
	case LeaderboardLongestStreak:
		return "longest-streak"
	default:
		return fmt.Sprintf("<invalid leaderboard kind>(%d)", int(k))
	}
}

// LeaderboardEntry is one ranked user
//
// Only the field matching the leaderboard kind is populated.
type LeaderboardEntry struct {
	UserID   string
	Username string

	AverageSolveTime   float64
	PuzzlesSolvedCount int
	LongestStreak      int
}

// PuzzleSolutionEntry is one user's solve of a single puzzle
type PuzzleSolutionEntry struct {
	UserID              string
	Username            string
	SecondsSpentSolving int
	AutocheckEnabled    bool
}

type PuzzleTopSolutions struct {
	Puzzle       Puzzle
	TopSolutions []PuzzleSolutionEntry
}
