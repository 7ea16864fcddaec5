package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/logging"
	"github.com/Amund211/ministats/internal/reporting"
)

const maxLimit = 100

var errInvalidLimit = errors.New("limit must be a positive integer")

// parseLimit reads the limit query parameter, defaulting when absent and capping at maxLimit
func parseLimit(raw string, defaultLimit int) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errInvalidLimit
	}
	return min(limit, maxLimit), nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(ctx, w, statusCode, errorResponse{Error: message})
}

func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, response any) {
	data, err := json.Marshal(response)
	if err != nil {
		err = fmt.Errorf("failed to marshal response: %w", err)
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to marshal response", "error", err)
		reporting.Report(ctx, err)

		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(data); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to write response", "error", err)
	}
}

// writeUseCaseError maps errors from the app layer to a status code
//
// NOTE: The app layer and its repositories handle their own error reporting
func writeUseCaseError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := logging.FromContext(ctx)

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		logger.InfoContext(ctx, "User not found", "statusCode", http.StatusNotFound)
		writeErrorResponse(ctx, w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrPuzzleNotFound):
		logger.InfoContext(ctx, "Puzzle not found", "statusCode", http.StatusNotFound)
		writeErrorResponse(ctx, w, http.StatusNotFound, "Puzzle not found")
	case errors.Is(err, domain.ErrTemporarilyUnavailable):
		logger.ErrorContext(ctx, "Temporarily unavailable", "statusCode", http.StatusServiceUnavailable, "error", err)
		writeErrorResponse(ctx, w, http.StatusServiceUnavailable, "Temporarily unavailable")
	default:
		logger.ErrorContext(ctx, "Internal error", "statusCode", http.StatusInternalServerError, "error", err)
		writeErrorResponse(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}
