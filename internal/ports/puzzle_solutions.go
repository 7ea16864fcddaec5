package ports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Amund211/ministats/internal/app"
	"github.com/Amund211/ministats/internal/logging"
	"github.com/Amund211/ministats/internal/reporting"
)

func MakeGetPuzzleSolutionsHandler(
	getPuzzleTopSolutions app.GetPuzzleTopSolutions,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildHandlerMiddleware(
		"puzzlesolutions",
		ipLimit{refillPerSecond: 2, burstSize: 60},
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rawPuzzleID := r.PathValue("puzzleID")
		ctx = logging.AddMetaToContext(ctx, slog.String("rawPuzzleID", rawPuzzleID))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"rawPuzzleID": rawPuzzleID,
		})

		puzzleID, err := strconv.Atoi(rawPuzzleID)
		if err != nil || puzzleID < 1 {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid puzzle id", "statusCode", http.StatusBadRequest)
			writeErrorResponse(ctx, w, http.StatusBadRequest, "Invalid puzzle id")
			return
		}

		rawLimit := r.URL.Query().Get("limit")
		limit, err := parseLimit(rawLimit, app.DefaultLeaderboardLimit)
		if err != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid limit", "statusCode", http.StatusBadRequest, "limit", rawLimit)
			writeErrorResponse(ctx, w, http.StatusBadRequest, err.Error())
			return
		}

		top, err := getPuzzleTopSolutions(ctx, puzzleID, limit)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, puzzleTopSolutionsToResponse(top))
	}

	return middleware(handler)
}
