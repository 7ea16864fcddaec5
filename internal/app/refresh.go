package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/logging"
)

// RefreshPuzzles fetches the mini puzzles printed in [start, end] and stores them
type RefreshPuzzles func(ctx context.Context, start, end time.Time) ([]domain.Puzzle, error)

func BuildRefreshPuzzles(provider puzzleProvider, puzzleRepo puzzleRepository) RefreshPuzzles {
	return func(ctx context.Context, start, end time.Time) ([]domain.Puzzle, error) {
		if start.After(end) {
			return nil, fmt.Errorf("start %s is after end %s", domain.FormatDate(start), domain.FormatDate(end))
		}

		puzzles, err := provider.GetPuzzles(ctx, domain.PublishTypeMini, start, end)
		if err != nil {
			// NOTE: puzzleProvider implementations handle their own error reporting
			return nil, fmt.Errorf("could not get puzzles: %w", err)
		}

		err = puzzleRepo.StorePuzzles(ctx, puzzles)
		if err != nil {
			// NOTE: puzzleRepository implementations handle their own error reporting
			return nil, fmt.Errorf("could not store puzzles: %w", err)
		}

		logging.FromContext(ctx).InfoContext(ctx, "Refreshed puzzles", "count", len(puzzles))

		return puzzles, nil
	}
}

// RefreshUserSolutions fetches and stores the user's solutions to the given puzzles
//
// Solutions fetched before a failure are still stored.
type RefreshUserSolutions func(ctx context.Context, user domain.User, puzzles []domain.Puzzle) (int, error)

func BuildRefreshUserSolutions(
	provider puzzleProvider,
	solutionRepo solutionRepository,
	nowFunc func() time.Time,
) RefreshUserSolutions {
	return func(ctx context.Context, user domain.User, puzzles []domain.Puzzle) (int, error) {
		if user.Token == "" {
			return 0, fmt.Errorf("%w: user %s has no token", domain.ErrInvalidToken, user.UserID)
		}

		solutions := make([]domain.Solution, 0, len(puzzles))
		var fetchErr error
		for _, puzzle := range puzzles {
			solution, err := provider.GetSolution(ctx, user.Token, user.UserID, puzzle.PuzzleID)
			if err != nil {
				// NOTE: puzzleProvider implementations handle their own error reporting
				fetchErr = fmt.Errorf("could not get solution for puzzle %d: %w", puzzle.PuzzleID, err)
				break
			}
			solution.UserID = user.UserID
			solution.PuzzleID = puzzle.PuzzleID
			if solution.QueriedAt.IsZero() {
				solution.QueriedAt = nowFunc()
			}
			solutions = append(solutions, solution)
		}

		if len(solutions) > 0 {
			// Store what we got even if the request was cancelled midway
			storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			err := solutionRepo.StoreSolutions(storeCtx, solutions)
			if err != nil {
				// NOTE: solutionRepository implementations handle their own error reporting
				return 0, errors.Join(fetchErr, fmt.Errorf("could not store solutions: %w", err))
			}
		}

		return len(solutions), fetchErr
	}
}

// RefreshUserSolutionsInRange refreshes the user's solutions for every stored mini in the range
type RefreshUserSolutionsInRange func(ctx context.Context, userID string, dateRange domain.DateRange) (int, error)

func BuildRefreshUserSolutionsInRange(
	userRepo userRepository,
	puzzleRepo puzzleRepository,
	refreshUserSolutions RefreshUserSolutions,
	nowFunc func() time.Time,
) RefreshUserSolutionsInRange {
	return func(ctx context.Context, userID string, dateRange domain.DateRange) (int, error) {
		user, err := userRepo.GetUser(ctx, userID)
		if err != nil {
			// NOTE: userRepository implementations handle their own error reporting
			return 0, fmt.Errorf("could not get user: %w", err)
		}

		puzzles, err := puzzleRepo.GetPuzzles(ctx, domain.PublishTypeMini, EffectiveDateRange(dateRange, nowFunc()))
		if err != nil {
			// NOTE: puzzleRepository implementations handle their own error reporting
			return 0, fmt.Errorf("could not get puzzles: %w", err)
		}

		return refreshUserSolutions(ctx, user, puzzles)
	}
}

// DailyRefreshResult summarizes a daily refresh. Failures for single users do not stop the refresh.
type DailyRefreshResult struct {
	PuzzlesUpdated  int
	UsersProcessed  int
	SolutionsStored int
	UserErrors      map[string]error
}

type RefreshDaily func(ctx context.Context) (DailyRefreshResult, error)

// BuildRefreshDaily refreshes today's puzzles and every user's solutions to them
func BuildRefreshDaily(
	refreshPuzzles RefreshPuzzles,
	refreshUserSolutions RefreshUserSolutions,
	userRepo userRepository,
	nowFunc func() time.Time,
) RefreshDaily {
	return func(ctx context.Context) (DailyRefreshResult, error) {
		logger := logging.FromContext(ctx)

		today := domain.TruncateToDay(nowFunc())
		tomorrow := today.AddDate(0, 0, 1)

		puzzles, err := refreshPuzzles(ctx, today, tomorrow)
		if err != nil {
			return DailyRefreshResult{}, fmt.Errorf("could not refresh puzzles: %w", err)
		}

		result := DailyRefreshResult{
			PuzzlesUpdated: len(puzzles),
			UserErrors:     map[string]error{},
		}

		if len(puzzles) == 0 {
			logger.InfoContext(ctx, "No puzzles found for today")
			return result, nil
		}

		users, err := userRepo.ListUsers(ctx)
		if err != nil {
			// NOTE: userRepository implementations handle their own error reporting
			return result, fmt.Errorf("could not list users: %w", err)
		}

		for _, user := range users {
			stored, err := refreshUserSolutions(ctx, user, puzzles)
			result.SolutionsStored += stored
			if err != nil {
				logger.WarnContext(ctx, "Failed to refresh solutions for user", "userID", user.UserID, "error", err.Error())
				result.UserErrors[user.UserID] = err
				continue
			}
			result.UsersProcessed++
		}

		logger.InfoContext(
			ctx, "Daily refresh completed",
			"puzzlesUpdated", result.PuzzlesUpdated,
			"usersProcessed", result.UsersProcessed,
			"solutionsStored", result.SolutionsStored,
			"userErrors", len(result.UserErrors),
		)

		return result, nil
	}
}
