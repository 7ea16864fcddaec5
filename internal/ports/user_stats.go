package ports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/ministats/internal/app"
	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/logging"
	"github.com/Amund211/ministats/internal/reporting"
)

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return &date, nil
}

func MakeGetUserStatsHandler(
	getUserStats app.GetUserStats,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildHandlerMiddleware(
		"userstats",
		ipLimit{refillPerSecond: 2, burstSize: 60},
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := r.PathValue("userID")
		rawStart := r.URL.Query().Get("startDate")
		rawEnd := r.URL.Query().Get("endDate")

		ctx = logging.AddMetaToContext(ctx,
			slog.String("startDate", rawStart),
			slog.String("endDate", rawEnd),
		)
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"startDate": rawStart,
			"endDate":   rawEnd,
		})

		if userID == "" {
			logging.FromContext(ctx).InfoContext(ctx, "Missing user id", "statusCode", http.StatusBadRequest)
			writeErrorResponse(ctx, w, http.StatusBadRequest, "Missing user id")
			return
		}

		start, err := parseOptionalDate(rawStart)
		if err != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid start date", "statusCode", http.StatusBadRequest, "error", err)
			writeErrorResponse(ctx, w, http.StatusBadRequest, "Invalid startDate")
			return
		}
		end, err := parseOptionalDate(rawEnd)
		if err != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid end date", "statusCode", http.StatusBadRequest, "error", err)
			writeErrorResponse(ctx, w, http.StatusBadRequest, "Invalid endDate")
			return
		}

		dateRange, err := domain.NewDateRange(start, end)
		if err != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid date range", "statusCode", http.StatusBadRequest, "error", err)
			writeErrorResponse(ctx, w, http.StatusBadRequest, "startDate must not be after endDate")
			return
		}

		stats, err := getUserStats(ctx, userID, dateRange)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, userStatsToResponse(stats))
	}

	return middleware(handler)
}
