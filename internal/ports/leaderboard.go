package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/ministats/internal/app"
	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/logging"
)

func MakeGetLeaderboardHandler(
	kind domain.LeaderboardKind,
	getLeaderboard app.GetLeaderboard,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildHandlerMiddleware(
		fmt.Sprintf("leaderboard/%s", kind),
		ipLimit{refillPerSecond: 2, burstSize: 60},
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rawLimit := r.URL.Query().Get("limit")
		limit, err := parseLimit(rawLimit, app.DefaultLeaderboardLimit)
		if err != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid limit", "statusCode", http.StatusBadRequest, "limit", rawLimit)
			writeErrorResponse(ctx, w, http.StatusBadRequest, err.Error())
			return
		}

		entries, err := getLeaderboard(ctx, kind, limit)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSONResponse(ctx, w, http.StatusOK, leaderboardToResponse(kind, entries))
	}

	return middleware(handler)
}
