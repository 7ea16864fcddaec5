package app

import (
	"slices"
	"time"

	"github.com/Amund211/ministats/internal/domain"
)

// EffectiveDateRange clamps the end of the range to today
func EffectiveDateRange(dateRange domain.DateRange, today time.Time) domain.DateRange {
	today = domain.TruncateToDay(today)
	if dateRange.End == nil || dateRange.End.After(today) {
		return domain.DateRange{Start: dateRange.Start, End: &today}
	}
	return dateRange
}

func isEligiblePuzzle(puzzle domain.Puzzle, dateRange domain.DateRange) bool {
	return puzzle.PublishType == domain.PublishTypeMini && dateRange.Contains(puzzle.PrintDate)
}

// AssembleSolutions joins the solutions with the print date of their puzzle
//
// Only solutions of mini puzzles printed on or before today and within the date range are kept.
// Solutions for unknown puzzles are dropped.
// The result is sorted by print date. Entries with the same print date keep their input order.
func AssembleSolutions(
	puzzles []domain.Puzzle,
	solutions []domain.Solution,
	today time.Time,
	dateRange domain.DateRange,
) []domain.EnrichedSolution {
	effectiveRange := EffectiveDateRange(dateRange, today)

	printDates := make(map[int]time.Time, len(puzzles))
	for _, puzzle := range puzzles {
		if !isEligiblePuzzle(puzzle, effectiveRange) {
			continue
		}
		printDates[puzzle.PuzzleID] = domain.TruncateToDay(puzzle.PrintDate)
	}

	enriched := make([]domain.EnrichedSolution, 0, len(solutions))
	for _, solution := range solutions {
		printDate, ok := printDates[solution.PuzzleID]
		if !ok {
			continue
		}
		enriched = append(enriched, domain.EnrichedSolution{
			Solution:  solution,
			PrintDate: printDate,
		})
	}

	slices.SortStableFunc(enriched, func(a, b domain.EnrichedSolution) int {
		return a.PrintDate.Compare(b.PrintDate)
	})

	return enriched
}
