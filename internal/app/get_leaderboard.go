package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/ministats/internal/adapters/cache"
	"github.com/Amund211/ministats/internal/domain"
)

type GetLeaderboard func(ctx context.Context, kind domain.LeaderboardKind, limit int) ([]domain.LeaderboardEntry, error)

func BuildGetLeaderboard(
	userRepo userRepository,
	puzzleRepo puzzleRepository,
	solutionRepo solutionRepository,
	nowFunc func() time.Time,
) GetLeaderboard {
	return func(ctx context.Context, kind domain.LeaderboardKind, limit int) ([]domain.LeaderboardEntry, error) {
		var rank func(solutions []domain.EnrichedSolution, users []domain.User, limit int) []domain.LeaderboardEntry
		switch kind {
		case domain.LeaderboardAverageSpeed:
			rank = RankByAverageSpeed
		case domain.LeaderboardPuzzlesSolved:
			rank = RankByPuzzlesSolved
		case domain.LeaderboardLongestStreak:
			rank = RankByLongestStreak
		default:
			return nil, fmt.Errorf("unknown leaderboard kind %s", kind)
		}

		now := nowFunc()
		dateRange := domain.DateRange{}

		users, err := userRepo.ListUsers(ctx)
		if err != nil {
			// NOTE: userRepository implementations handle their own error reporting
			return nil, fmt.Errorf("%w: could not list users: %w", domain.ErrLoadFailed, err)
		}

		puzzles, err := puzzleRepo.GetPuzzles(ctx, domain.PublishTypeMini, EffectiveDateRange(dateRange, now))
		if err != nil {
			// NOTE: puzzleRepository implementations handle their own error reporting
			return nil, fmt.Errorf("%w: could not get puzzles: %w", domain.ErrLoadFailed, err)
		}

		// All users' solutions are loaded in one round trip. The sort in AssembleSolutions is stable,
		// so partitioning by user afterwards yields each user's own assembled sequence.
		solutions, err := solutionRepo.GetAllSolutions(ctx)
		if err != nil {
			// NOTE: solutionRepository implementations handle their own error reporting
			return nil, fmt.Errorf("%w: could not get solutions: %w", domain.ErrLoadFailed, err)
		}

		enriched := AssembleSolutions(puzzles, solutions, now, dateRange)

		return rank(enriched, users, limit), nil
	}
}

func BuildGetLeaderboardWithCache(
	leaderboardCache cache.Cache[[]domain.LeaderboardEntry],
	getLeaderboard GetLeaderboard,
	nowFunc func() time.Time,
) GetLeaderboard {
	return func(ctx context.Context, kind domain.LeaderboardKind, limit int) ([]domain.LeaderboardEntry, error) {
		key := fmt.Sprintf("leaderboard:%s|limit:%d|today:%s", kind, limit, domain.FormatDate(nowFunc()))

		entries, _, err := cache.GetOrCreate(ctx, leaderboardCache, key, func() ([]domain.LeaderboardEntry, error) {
			return getLeaderboard(ctx, kind, limit)
		})
		if err != nil {
			// NOTE: GetOrCreate only returns an error if create() fails, or the context is done.
			// getLeaderboard handles its own error reporting
			return nil, fmt.Errorf("failed to cache.GetOrCreate leaderboard: %w", err)
		}

		return entries, nil
	}
}
