package puzzleprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Amund211/ministats/internal/constants"
	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/logging"
	"github.com/Amund211/ministats/internal/ratelimiting"
	"github.com/Amund211/ministats/internal/reporting"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type NYT struct {
	httpClient   HttpClient
	baseURL      string
	listingToken string
	limiter      ratelimiting.RequestLimiter
	nowFunc      func() time.Time
	tracer       trace.Tracer
}

// NewNYT creates a client for the crossword api at baseURL
//
// listingToken is used for the puzzle listing, which is not tied to a user
func NewNYT(
	httpClient HttpClient,
	baseURL string,
	listingToken string,
	limiter ratelimiting.RequestLimiter,
	nowFunc func() time.Time,
) *NYT {
	return &NYT{
		httpClient:   httpClient,
		baseURL:      baseURL,
		listingToken: listingToken,
		limiter:      limiter,
		nowFunc:      nowFunc,
		tracer:       otel.Tracer("ministats/puzzleprovider/nyt"),
	}
}

func (n *NYT) get(ctx context.Context, path string, token string) (int, []byte, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: waiting for request slot: %w", domain.ErrTemporarilyUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "NYT-S", Value: token})
	}

	start := time.Now()
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logging.FromContext(ctx).InfoContext(ctx, "nyt request completed", "path", req.URL.Path, "status", resp.StatusCode, "duration", time.Since(start).String())

	return resp.StatusCode, data, nil
}

func checkStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: upstream returned status code %d", domain.ErrInvalidToken, statusCode)
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		return fmt.Errorf("%w: upstream returned status code %d", domain.ErrTemporarilyUnavailable, statusCode)
	case statusCode != http.StatusOK:
		return fmt.Errorf("upstream returned unexpected status code %d", statusCode)
	}
	return nil
}

type puzzlesResponse struct {
	Results []struct {
		PuzzleID    int    `json:"puzzle_id"`
		PrintDate   string `json:"print_date"`
		PublishType string `json:"publish_type"`
		Author      string `json:"author"`
		Editor      string `json:"editor"`
		Title       string `json:"title"`
		FormatType  string `json:"format_type"`
	} `json:"results"`
}

func puzzlesFromResponse(data []byte) ([]domain.Puzzle, error) {
	var response puzzlesResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse puzzles response: %w", err)
	}

	puzzles := make([]domain.Puzzle, 0, len(response.Results))
	for _, result := range response.Results {
		printDate, err := time.Parse(domain.DateLayout, result.PrintDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse print date of puzzle %d: %w", result.PuzzleID, err)
		}
		puzzles = append(puzzles, domain.Puzzle{
			PuzzleID:    result.PuzzleID,
			PrintDate:   printDate,
			PublishType: result.PublishType,
			Author:      result.Author,
			Editor:      result.Editor,
			Title:       result.Title,
			FormatType:  result.FormatType,
		})
	}
	return puzzles, nil
}

func (n *NYT) GetPuzzles(ctx context.Context, publishType string, start, end time.Time) ([]domain.Puzzle, error) {
	ctx, span := n.tracer.Start(ctx, "NYT.GetPuzzles")
	defer span.End()

	path := fmt.Sprintf(
		"svc/crosswords/v3/puzzles.json?publish_type=%s&date_start=%s&date_end=%s",
		url.QueryEscape(publishType), domain.FormatDate(start), domain.FormatDate(end),
	)

	statusCode, data, err := n.get(ctx, path, n.listingToken)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"start": domain.FormatDate(start),
			"end":   domain.FormatDate(end),
		})
		return nil, err
	}

	if err := checkStatus(statusCode); err != nil {
		reporting.Report(ctx, err, map[string]string{
			"status": strconv.Itoa(statusCode),
			"data":   string(data),
		})
		return nil, err
	}

	puzzles, err := puzzlesFromResponse(data)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"data": string(data),
		})
		return nil, err
	}

	span.SetAttributes(attribute.Int("puzzle_count", len(puzzles)))
	return puzzles, nil
}

type gameResponse struct {
	Calcs *struct {
		Solved              bool `json:"solved"`
		SecondsSpentSolving int  `json:"secondsSpentSolving"`
		PercentFilled       int  `json:"percentFilled"`
	} `json:"calcs"`
	AutocheckEnabled bool `json:"autocheckEnabled"`
}

func solutionFromResponse(data []byte, userID string, puzzleID int, queriedAt time.Time) (domain.Solution, error) {
	var response gameResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return domain.Solution{}, fmt.Errorf("failed to parse game response: %w", err)
	}

	solution := domain.Solution{
		UserID:           userID,
		PuzzleID:         puzzleID,
		AutocheckEnabled: response.AutocheckEnabled,
		QueriedAt:        queriedAt,
	}

	// Puzzles the user never opened have no calcs
	if response.Calcs != nil {
		solution.Solved = response.Calcs.Solved
		solution.SecondsSpentSolving = response.Calcs.SecondsSpentSolving
		solution.PercentFilled = response.Calcs.PercentFilled
	}

	if solution.SecondsSpentSolving < 0 {
		return domain.Solution{}, fmt.Errorf("negative solve time %d", solution.SecondsSpentSolving)
	}

	return solution, nil
}

func (n *NYT) GetSolution(ctx context.Context, token string, userID string, puzzleID int) (domain.Solution, error) {
	ctx, span := n.tracer.Start(ctx, "NYT.GetSolution")
	defer span.End()
	span.SetAttributes(attribute.Int("puzzle_id", puzzleID))

	if token == "" {
		return domain.Solution{}, fmt.Errorf("%w: empty token", domain.ErrInvalidToken)
	}

	extras := map[string]string{
		"userID":   userID,
		"puzzleID": strconv.Itoa(puzzleID),
	}

	statusCode, data, err := n.get(ctx, fmt.Sprintf("svc/crosswords/v6/game/%d.json", puzzleID), token)
	if err != nil {
		reporting.Report(ctx, err, extras)
		return domain.Solution{}, err
	}

	if err := checkStatus(statusCode); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			// Expired tokens are a user problem, not ours
			logging.FromContext(ctx).WarnContext(ctx, "upstream rejected token", "userID", userID, "status", statusCode)
			return domain.Solution{}, err
		}
		extras["status"] = strconv.Itoa(statusCode)
		reporting.Report(ctx, err, extras)
		return domain.Solution{}, err
	}

	solution, err := solutionFromResponse(data, userID, puzzleID, n.nowFunc())
	if err != nil {
		extras["data"] = string(data)
		reporting.Report(ctx, err, extras)
		return domain.Solution{}, err
	}

	return solution, nil
}
