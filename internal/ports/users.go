package ports

import (
	"log/slog"
	"net/http"

	"github.com/Amund211/ministats/internal/app"
)

func MakeListUsersHandler(
	listUsers app.ListUsers,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildHandlerMiddleware(
		"users",
		ipLimit{refillPerSecond: 4, burstSize: 120},
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		users, err := listUsers(ctx)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, usersToResponse(users))
	}

	return middleware(handler)
}
