package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amund211/ministats/internal/domain"
)

type GetPuzzleTopSolutions func(ctx context.Context, puzzleID int, limit int) (domain.PuzzleTopSolutions, error)

func BuildGetPuzzleTopSolutions(
	userRepo userRepository,
	puzzleRepo puzzleRepository,
	solutionRepo solutionRepository,
) GetPuzzleTopSolutions {
	return func(ctx context.Context, puzzleID int, limit int) (domain.PuzzleTopSolutions, error) {
		puzzle, err := puzzleRepo.GetPuzzle(ctx, puzzleID)
		if errors.Is(err, domain.ErrPuzzleNotFound) {
			return domain.PuzzleTopSolutions{}, fmt.Errorf("could not get top solutions for puzzle %d: %w", puzzleID, err)
		} else if err != nil {
			// NOTE: puzzleRepository implementations handle their own error reporting
			return domain.PuzzleTopSolutions{}, fmt.Errorf("%w: could not get puzzle: %w", domain.ErrLoadFailed, err)
		}

		solutions, err := solutionRepo.GetSolutionsForPuzzle(ctx, puzzleID)
		if err != nil {
			// NOTE: solutionRepository implementations handle their own error reporting
			return domain.PuzzleTopSolutions{}, fmt.Errorf("%w: could not get solutions: %w", domain.ErrLoadFailed, err)
		}

		users, err := userRepo.ListUsers(ctx)
		if err != nil {
			// NOTE: userRepository implementations handle their own error reporting
			return domain.PuzzleTopSolutions{}, fmt.Errorf("%w: could not list users: %w", domain.ErrLoadFailed, err)
		}

		return domain.PuzzleTopSolutions{
			Puzzle:       puzzle,
			TopSolutions: RankPuzzleSolutions(solutions, users, limit),
		}, nil
	}
}
