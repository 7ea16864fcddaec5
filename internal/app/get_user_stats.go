package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/ministats/internal/adapters/cache"
	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/logging"
)

type GetUserStats func(ctx context.Context, userID string, dateRange domain.DateRange) (domain.UserStats, error)

func BuildGetUserStats(
	userRepo userRepository,
	puzzleRepo puzzleRepository,
	solutionRepo solutionRepository,
	nowFunc func() time.Time,
) GetUserStats {
	return func(ctx context.Context, userID string, dateRange domain.DateRange) (domain.UserStats, error) {
		now := nowFunc()

		user, err := userRepo.GetUser(ctx, userID)
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.UserStats{}, fmt.Errorf("could not get stats for user %s: %w", userID, err)
		} else if err != nil {
			// NOTE: userRepository implementations handle their own error reporting
			return domain.UserStats{}, fmt.Errorf("%w: could not get user: %w", domain.ErrLoadFailed, err)
		}

		puzzles, err := puzzleRepo.GetPuzzles(ctx, domain.PublishTypeMini, EffectiveDateRange(dateRange, now))
		if err != nil {
			// NOTE: puzzleRepository implementations handle their own error reporting
			return domain.UserStats{}, fmt.Errorf("%w: could not get puzzles: %w", domain.ErrLoadFailed, err)
		}

		solutions, err := solutionRepo.GetSolutionsForUser(ctx, userID)
		if err != nil {
			// NOTE: solutionRepository implementations handle their own error reporting
			return domain.UserStats{}, fmt.Errorf("%w: could not get solutions: %w", domain.ErrLoadFailed, err)
		}

		enriched := AssembleSolutions(puzzles, solutions, now, dateRange)

		logging.FromContext(ctx).InfoContext(
			ctx, "Computing user stats",
			"puzzleCount", len(puzzles),
			"solutionCount", len(solutions),
			"eligibleCount", len(enriched),
		)

		return ComputeUserStats(user, enriched, now), nil
	}
}

func userStatsCacheKey(userID string, dateRange domain.DateRange, now time.Time) string {
	return fmt.Sprintf("user:%s|range:%s|today:%s", userID, dateRange.String(), domain.FormatDate(now))
}

// BuildGetUserStatsWithCache de-duplicates concurrent computations of the same stats
//
// The key includes today's date so "this week" values and the future-date filter stay fresh.
func BuildGetUserStatsWithCache(
	statsCache cache.Cache[domain.UserStats],
	getUserStats GetUserStats,
	nowFunc func() time.Time,
) GetUserStats {
	return func(ctx context.Context, userID string, dateRange domain.DateRange) (domain.UserStats, error) {
		key := userStatsCacheKey(userID, dateRange, nowFunc())

		stats, _, err := cache.GetOrCreate(ctx, statsCache, key, func() (domain.UserStats, error) {
			return getUserStats(ctx, userID, dateRange)
		})
		if err != nil {
			// NOTE: GetOrCreate only returns an error if create() fails, or the context is done.
			// getUserStats handles its own error reporting
			return domain.UserStats{}, fmt.Errorf("failed to cache.GetOrCreate user stats: %w", err)
		}

		return stats, nil
	}
}
