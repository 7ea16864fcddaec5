package domaintest

import (
	"time"

	"github.com/Amund211/ministats/internal/domain"
)

type solutionBuilder struct {
	solution domain.Solution
}

func (sb *solutionBuilder) WithSeconds(seconds int) *solutionBuilder {
	sb.solution.SecondsSpentSolving = seconds
	return sb
}

func (sb *solutionBuilder) Unsolved() *solutionBuilder {
	sb.solution.Solved = false
	sb.solution.PercentFilled = 40
	return sb
}

func (sb *solutionBuilder) WithAutocheck() *solutionBuilder {
	sb.solution.AutocheckEnabled = true
	return sb
}

func (sb *solutionBuilder) WithQueriedAt(queriedAt time.Time) *solutionBuilder {
	sb.solution.QueriedAt = queriedAt
	return sb
}

func (sb *solutionBuilder) Build() domain.Solution {
	return sb.solution
}

// BuildEnriched attaches the given print date
func (sb *solutionBuilder) BuildEnriched(printDate string) domain.EnrichedSolution {
	return domain.EnrichedSolution{
		Solution:  sb.solution,
		PrintDate: Date(printDate),
	}
}

// NewSolutionBuilder starts from a solved solution taking 60 seconds
func NewSolutionBuilder(userID string, puzzleID int) *solutionBuilder {
	return &solutionBuilder{
		solution: domain.Solution{
			UserID:              userID,
			PuzzleID:            puzzleID,
			Solved:              true,
			SecondsSpentSolving: 60,
			PercentFilled:       100,
			AutocheckEnabled:    false,
		},
	}
}
