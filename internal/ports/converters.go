package ports

import (
	"github.com/Amund211/ministats/internal/domain"
)

type userResponse struct {
	UserID   string `json:"userID"`
	Username string `json:"username"`
}

type dayStatsResponse struct {
	AverageSolveTime float64 `json:"averageSolveTime"`
	BestSolveTime    int     `json:"bestSolveTime"`
	BestDate         string  `json:"bestDate"`
	ThisWeeksTime    int     `json:"thisWeeksTime"`
	ThisWeeksDate    string  `json:"thisWeeksDate"`
}

type weekdayStatsResponse struct {
	Day   string           `json:"day"`
	Stats dayStatsResponse `json:"stats"`
}

type userStatsResponse struct {
	UserID             string                 `json:"userID"`
	Username           string                 `json:"username"`
	AverageSolveTime   float64                `json:"averageSolveTime"`
	TotalPuzzlesSolved int                    `json:"totalPuzzlesSolved"`
	CurrentStreak      int                    `json:"currentStreak"`
	LongestStreak      int                    `json:"longestStreak"`
	AutoCompletePct    float64                `json:"autoCompletePct"`
	StatsByDay         []weekdayStatsResponse `json:"statsByDay"`
}

type averageTimeEntryResponse struct {
	UserID           string  `json:"userID"`
	Username         string  `json:"username"`
	AverageSolveTime float64 `json:"averageSolveTime"`
}

type puzzlesSolvedEntryResponse struct {
	UserID             string `json:"userID"`
	Username           string `json:"username"`
	PuzzlesSolvedCount int    `json:"puzzlesSolvedCount"`
}

type longestStreakEntryResponse struct {
	UserID        string `json:"userID"`
	Username      string `json:"username"`
	LongestStreak int    `json:"longestStreak"`
}

type puzzleResponse struct {
	PuzzleID    int    `json:"puzzleID"`
	PrintDate   string `json:"printDate"`
	PublishType string `json:"publishType"`
	Title       string `json:"title"`
	Author      string `json:"author"`
}

type puzzleSolutionResponse struct {
	UserID              string `json:"userID"`
	Username            string `json:"username"`
	SecondsSpentSolving int    `json:"secondsSpentSolving"`
	AutocheckEnabled    bool   `json:"autocheckEnabled"`
}

type puzzleTopSolutionsResponse struct {
	Puzzle       puzzleResponse           `json:"puzzle"`
	TopSolutions []puzzleSolutionResponse `json:"topSolutions"`
}

func usersToResponse(users []domain.User) []userResponse {
	response := make([]userResponse, 0, len(users))
	for _, user := range users {
		response = append(response, userResponse{
			UserID:   user.UserID,
			Username: user.Username(),
		})
	}
	return response
}

func userStatsToResponse(stats domain.UserStats) userStatsResponse {
	byDay := make([]weekdayStatsResponse, 0, len(stats.StatsByDay))
	for _, day := range stats.StatsByDay {
		byDay = append(byDay, weekdayStatsResponse{
			Day: day.Day.String(),
			Stats: dayStatsResponse{
				AverageSolveTime: day.Stats.AverageSolveTime,
				BestSolveTime:    day.Stats.BestSolveTime,
				BestDate:         day.Stats.BestDate,
				ThisWeeksTime:    day.Stats.ThisWeeksTime,
				ThisWeeksDate:    day.Stats.ThisWeeksDate,
			},
		})
	}

	return userStatsResponse{
		UserID:             stats.UserID,
		Username:           stats.Username,
		AverageSolveTime:   stats.AverageSolveTime,
		TotalPuzzlesSolved: stats.TotalPuzzlesSolved,
		CurrentStreak:      stats.CurrentStreak,
		LongestStreak:      stats.LongestStreak,
		AutoCompletePct:    stats.AutoCompletePct,
		StatsByDay:         byDay,
	}
}

// leaderboardToResponse only exposes the metric the board is ranked by
func leaderboardToResponse(kind domain.LeaderboardKind, entries []domain.LeaderboardEntry) any {
	switch kind {
	case domain.LeaderboardAverageSpeed:
		response := make([]averageTimeEntryResponse, 0, len(entries))
		for _, entry := range entries {
			response = append(response, averageTimeEntryResponse{
				UserID:           entry.UserID,
				Username:         entry.Username,
				AverageSolveTime: entry.AverageSolveTime,
			})
		}
		return response
	case domain.LeaderboardPuzzlesSolved:
		response := make([]puzzlesSolvedEntryResponse, 0, len(entries))
		for _, entry := range entries {
			response = append(response, puzzlesSolvedEntryResponse{
				UserID:             entry.UserID,
				Username:           entry.Username,
				PuzzlesSolvedCount: entry.PuzzlesSolvedCount,
			})
		}
		return response
	default:
		response := make([]longestStreakEntryResponse, 0, len(entries))
		for _, entry := range entries {
			response = append(response, longestStreakEntryResponse{
				UserID:        entry.UserID,
				Username:      entry.Username,
				LongestStreak: entry.LongestStreak,
			})
		}
		return response
	}
}

func puzzleTopSolutionsToResponse(top domain.PuzzleTopSolutions) puzzleTopSolutionsResponse {
	solutions := make([]puzzleSolutionResponse, 0, len(top.TopSolutions))
	for _, solution := range top.TopSolutions {
		solutions = append(solutions, puzzleSolutionResponse{
			UserID:              solution.UserID,
			Username:            solution.Username,
			SecondsSpentSolving: solution.SecondsSpentSolving,
			AutocheckEnabled:    solution.AutocheckEnabled,
		})
	}

	return puzzleTopSolutionsResponse{
		Puzzle: puzzleResponse{
			PuzzleID:    top.Puzzle.PuzzleID,
			PrintDate:   domain.FormatDate(top.Puzzle.PrintDate),
			PublishType: top.Puzzle.PublishType,
			Title:       top.Puzzle.Title,
			Author:      top.Puzzle.Author,
		},
		TopSolutions: solutions,
	}
}
