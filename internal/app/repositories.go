package app

import (
	"context"
	"time"

	"github.com/Amund211/ministats/internal/domain"
)

type userRepository interface {
	// GetUser returns domain.ErrUserNotFound if the user does not exist
	GetUser(ctx context.Context, userID string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	StoreUser(ctx context.Context, user domain.User) error
}

type puzzleRepository interface {
	// GetPuzzle returns domain.ErrPuzzleNotFound if the puzzle does not exist
	GetPuzzle(ctx context.Context, puzzleID int) (domain.Puzzle, error)
	GetPuzzles(ctx context.Context, publishType string, dateRange domain.DateRange) ([]domain.Puzzle, error)
	StorePuzzles(ctx context.Context, puzzles []domain.Puzzle) error
}

type solutionRepository interface {
	GetSolutionsForUser(ctx context.Context, userID string) ([]domain.Solution, error)
	GetSolutionsForPuzzle(ctx context.Context, puzzleID int) ([]domain.Solution, error)
	GetAllSolutions(ctx context.Context) ([]domain.Solution, error)
	StoreSolutions(ctx context.Context, solutions []domain.Solution) error
}

type puzzleProvider interface {
	GetPuzzles(ctx context.Context, publishType string, start, end time.Time) ([]domain.Puzzle, error)
	// GetSolution returns domain.ErrInvalidToken if the upstream rejects the token
	GetSolution(ctx context.Context, token string, userID string, puzzleID int) (domain.Solution, error)
}
