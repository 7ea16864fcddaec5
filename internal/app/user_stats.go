package app

import (
	"math"
	"time"

	"github.com/Amund211/ministats/internal/domain"
)

// WeekStartsOn is the first day of the week used for "this week" computations
const WeekStartsOn = time.Monday

func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

func solvedSubset(solutions []domain.EnrichedSolution) []domain.EnrichedSolution {
	solved := make([]domain.EnrichedSolution, 0, len(solutions))
	for _, solution := range solutions {
		if solution.Solved {
			solved = append(solved, solution)
		}
	}
	return solved
}

func averageSeconds(solutions []domain.EnrichedSolution) float64 {
	if len(solutions) == 0 {
		return 0
	}
	total := 0
	for _, solution := range solutions {
		total += solution.SecondsSpentSolving
	}
	return roundTo(float64(total)/float64(len(solutions)), 2)
}

// AverageSolveTime in seconds over the solved puzzles, rounded to two decimals
func AverageSolveTime(solutions []domain.EnrichedSolution) float64 {
	return averageSeconds(solvedSubset(solutions))
}

func TotalPuzzlesSolved(solutions []domain.EnrichedSolution) int {
	count := 0
	for _, solution := range solutions {
		if solution.Solved {
			count++
		}
	}
	return count
}

// CurrentStreak counts the solved entries at the end of the sequence
//
// NOTE: The streak is over consecutive entries, not calendar days. A day without any entry does
// not break the streak, only an unsolved entry does.
func CurrentStreak(solutions []domain.EnrichedSolution) int {
	streak := 0
	for i := len(solutions) - 1; i >= 0; i-- {
		if !solutions[i].Solved {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak is the longest run of consecutive solved entries
func LongestStreak(solutions []domain.EnrichedSolution) int {
	longest := 0
	current := 0
	for _, solution := range solutions {
		if !solution.Solved {
			current = 0
			continue
		}
		current++
		longest = max(longest, current)
	}
	return longest
}

// AutoCompletePercentage is the fraction of solved puzzles solved with autocheck, rounded to four decimals
func AutoCompletePercentage(solutions []domain.EnrichedSolution) float64 {
	solved := 0
	autoCompleted := 0
	for _, solution := range solutions {
		if !solution.Solved {
			continue
		}
		solved++
		if solution.AutocheckEnabled {
			autoCompleted++
		}
	}
	if solved == 0 {
		return 0
	}
	return roundTo(float64(autoCompleted)/float64(solved), 4)
}

// DateInWeek returns the date of the given weekday in the week containing now (UTC)
func DateInWeek(now time.Time, weekday time.Weekday, weekStartsOn time.Weekday) time.Time {
	today := domain.TruncateToDay(now)
	daysSinceWeekStart := (int(today.Weekday()) - int(weekStartsOn) + 7) % 7
	weekStart := today.AddDate(0, 0, -daysSinceWeekStart)
	return weekStart.AddDate(0, 0, (int(weekday)-int(weekStartsOn)+7)%7)
}

// StatsByDay computes the stats for the solved puzzles printed on the given weekday
//
// Returns the zero DayStats if there are no such puzzles.
// When several puzzles share the best time, the earliest one in the sequence is used.
func StatsByDay(
	solutions []domain.EnrichedSolution,
	weekday time.Weekday,
	now time.Time,
	weekStartsOn time.Weekday,
) domain.DayStats {
	thisWeeksDate := DateInWeek(now, weekday, weekStartsOn)

	daySolutions := make([]domain.EnrichedSolution, 0)
	var best *domain.EnrichedSolution
	thisWeeksTime := 0
	for i := range solutions {
		solution := &solutions[i]
		if !solution.Solved || solution.PrintDate.UTC().Weekday() != weekday {
			continue
		}

		daySolutions = append(daySolutions, *solution)

		if best == nil || solution.SecondsSpentSolving < best.SecondsSpentSolving {
			best = solution
		}

		if domain.TruncateToDay(solution.PrintDate).Equal(thisWeeksDate) {
			thisWeeksTime = solution.SecondsSpentSolving
		}
	}

	if best == nil {
		return domain.DayStats{}
	}

	return domain.DayStats{
		AverageSolveTime: averageSeconds(daySolutions),
		BestSolveTime:    best.SecondsSpentSolving,
		BestDate:         domain.FormatDate(best.PrintDate),
		ThisWeeksTime:    thisWeeksTime,
		ThisWeeksDate:    domain.FormatDate(thisWeeksDate),
	}
}

// ComputeUserStats derives all stats for one user from their assembled solutions
func ComputeUserStats(user domain.User, solutions []domain.EnrichedSolution, now time.Time) domain.UserStats {
	statsByDay := make([]domain.WeekdayStats, 0, 7)
	for i := range 7 {
		day := time.Weekday((int(WeekStartsOn) + i) % 7)
		statsByDay = append(statsByDay, domain.WeekdayStats{
			Day:   day,
			Stats: StatsByDay(solutions, day, now, WeekStartsOn),
		})
	}

	return domain.UserStats{
		UserID:   user.UserID,
		Username: user.Username(),

		AverageSolveTime:   AverageSolveTime(solutions),
		TotalPuzzlesSolved: TotalPuzzlesSolved(solutions),
		CurrentStreak:      CurrentStreak(solutions),
		LongestStreak:      LongestStreak(solutions),
		AutoCompletePct:    AutoCompletePercentage(solutions),

		StatsByDay: statsByDay,
	}
}
