package app

import (
	"cmp"
	"slices"

	"github.com/Amund211/ministats/internal/domain"
)

// DefaultLeaderboardLimit is the number of entries returned when no limit is given
const DefaultLeaderboardLimit = 5

func usernameLookup(users []domain.User) func(userID string) string {
	byID := make(map[string]domain.User, len(users))
	for _, user := range users {
		byID[user.UserID] = user
	}
	return func(userID string) string {
		user, ok := byID[userID]
		if !ok {
			return userID
		}
		return user.Username()
	}
}

func top[T any](entries []T, limit int) []T {
	if limit < 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}

type solvedTotals struct {
	userID       string
	totalSeconds int
	count        int
}

func groupSolvedByUser(solutions []domain.EnrichedSolution) []solvedTotals {
	indexByUser := make(map[string]int)
	totals := []solvedTotals{}
	for _, solution := range solutions {
		if !solution.Solved {
			continue
		}
		i, ok := indexByUser[solution.UserID]
		if !ok {
			i = len(totals)
			indexByUser[solution.UserID] = i
			totals = append(totals, solvedTotals{userID: solution.UserID})
		}
		totals[i].totalSeconds += solution.SecondsSpentSolving
		totals[i].count++
	}
	return totals
}

// RankByAverageSpeed ranks users by their average solve time, fastest first
//
// Users without any solved puzzles are not ranked. Ties are broken by user id.
func RankByAverageSpeed(solutions []domain.EnrichedSolution, users []domain.User, limit int) []domain.LeaderboardEntry {
	username := usernameLookup(users)

	entries := []domain.LeaderboardEntry{}
	for _, totals := range groupSolvedByUser(solutions) {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:           totals.userID,
			Username:         username(totals.userID),
			AverageSolveTime: roundTo(float64(totals.totalSeconds)/float64(totals.count), 2),
		})
	}

	slices.SortFunc(entries, func(a, b domain.LeaderboardEntry) int {
		if c := cmp.Compare(a.AverageSolveTime, b.AverageSolveTime); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	return top(entries, limit)
}

// RankByPuzzlesSolved ranks users by the number of solved puzzles, most first
//
// Users without any solved puzzles are not ranked. Ties are broken by user id.
func RankByPuzzlesSolved(solutions []domain.EnrichedSolution, users []domain.User, limit int) []domain.LeaderboardEntry {
	username := usernameLookup(users)

	entries := []domain.LeaderboardEntry{}
	for _, totals := range groupSolvedByUser(solutions) {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:             totals.userID,
			Username:           username(totals.userID),
			PuzzlesSolvedCount: totals.count,
		})
	}

	slices.SortFunc(entries, func(a, b domain.LeaderboardEntry) int {
		if c := cmp.Compare(b.PuzzlesSolvedCount, a.PuzzlesSolvedCount); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	return top(entries, limit)
}

// RankByLongestStreak ranks every user in the directory by their longest streak, longest first
//
// solutions must be sorted by print date, as returned by AssembleSolutions.
// Each user's streak is computed over their own entries only. Ties are broken by user id.
func RankByLongestStreak(solutions []domain.EnrichedSolution, users []domain.User, limit int) []domain.LeaderboardEntry {
	solutionsByUser := make(map[string][]domain.EnrichedSolution)
	for _, solution := range solutions {
		solutionsByUser[solution.UserID] = append(solutionsByUser[solution.UserID], solution)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:        user.UserID,
			Username:      user.Username(),
			LongestStreak: LongestStreak(solutionsByUser[user.UserID]),
		})
	}

	slices.SortFunc(entries, func(a, b domain.LeaderboardEntry) int {
		if c := cmp.Compare(b.LongestStreak, a.LongestStreak); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	return top(entries, limit)
}

// RankPuzzleSolutions returns the fastest solves of a single puzzle
//
// Ties are broken by user id.
func RankPuzzleSolutions(solutions []domain.Solution, users []domain.User, limit int) []domain.PuzzleSolutionEntry {
	username := usernameLookup(users)

	entries := []domain.PuzzleSolutionEntry{}
	for _, solution := range solutions {
		if !solution.Solved || solution.SecondsSpentSolving <= 0 {
			continue
		}
		entries = append(entries, domain.PuzzleSolutionEntry{
			UserID:              solution.UserID,
			Username:            username(solution.UserID),
			SecondsSpentSolving: solution.SecondsSpentSolving,
			AutocheckEnabled:    solution.AutocheckEnabled,
		})
	}

	slices.SortFunc(entries, func(a, b domain.PuzzleSolutionEntry) int {
		if c := cmp.Compare(a.SecondsSpentSolving, b.SecondsSpentSolving); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	return top(entries, limit)
}
