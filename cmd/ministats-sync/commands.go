package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Amund211/ministats/internal/app"
	"github.com/Amund211/ministats/internal/domain"
)

var errUsage = errors.New("usage: ministats-sync <puzzles|solutions|daily|add-user> [flags]")

type commands struct {
	refreshPuzzles              app.RefreshPuzzles
	refreshUserSolutionsInRange app.RefreshUserSolutionsInRange
	refreshDaily                app.RefreshDaily
	addUser                     app.AddUser
	nowFunc                     func() time.Time
	out                         io.Writer
}

// parseDate parses a YYYY-MM-DD flag value. The empty string means no date.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return &date, nil
}

func (c commands) run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}

	switch args[0] {
	case "puzzles":
		return c.puzzles(ctx, args[1:])
	case "solutions":
		return c.solutions(ctx, args[1:])
	case "daily":
		return c.daily(ctx, args[1:])
	case "add-user":
		return c.addUserCommand(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (c commands) puzzles(ctx context.Context, args []string) error {
	fs := newFlagSet("puzzles", c.out)
	rawStart := fs.String("start", "", "first print date (YYYY-MM-DD), defaults to today")
	rawEnd := fs.String("end", "", "last print date (YYYY-MM-DD), defaults to start")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start, err := parseDate(*rawStart)
	if err != nil {
		return err
	}
	if start == nil {
		today := domain.TruncateToDay(c.nowFunc())
		start = &today
	}
	end, err := parseDate(*rawEnd)
	if err != nil {
		return err
	}
	if end == nil {
		end = start
	}

	puzzles, err := c.refreshPuzzles(ctx, *start, *end)
	if err != nil {
		return fmt.Errorf("failed to refresh puzzles: %w", err)
	}

	fmt.Fprintf(c.out, "stored %d puzzles between %s and %s\n", len(puzzles), domain.FormatDate(*start), domain.FormatDate(*end))
	return nil
}

func (c commands) solutions(ctx context.Context, args []string) error {
	fs := newFlagSet("solutions", c.out)
	userID := fs.String("user", "", "user id to refresh (required)")
	rawStart := fs.String("start", "", "first print date (YYYY-MM-DD)")
	rawEnd := fs.String("end", "", "last print date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == "" {
		return errors.New("-user is required")
	}

	start, err := parseDate(*rawStart)
	if err != nil {
		return err
	}
	end, err := parseDate(*rawEnd)
	if err != nil {
		return err
	}
	dateRange, err := domain.NewDateRange(start, end)
	if err != nil {
		return err
	}

	stored, err := c.refreshUserSolutionsInRange(ctx, *userID, dateRange)
	fmt.Fprintf(c.out, "stored %d solutions for user %s in %s\n", stored, *userID, dateRange)
	if err != nil {
		return fmt.Errorf("failed to refresh solutions: %w", err)
	}
	return nil
}

func (c commands) daily(ctx context.Context, args []string) error {
	fs := newFlagSet("daily", c.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := c.refreshDaily(ctx)
	if err != nil {
		return fmt.Errorf("failed to run daily refresh: %w", err)
	}

	fmt.Fprintf(
		c.out,
		"puzzles updated: %d, users processed: %d, solutions stored: %d\n",
		result.PuzzlesUpdated, result.UsersProcessed, result.SolutionsStored,
	)

	userIDs := make([]string, 0, len(result.UserErrors))
	for userID := range result.UserErrors {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)
	for _, userID := range userIDs {
		fmt.Fprintf(c.out, "user %s: %v\n", userID, result.UserErrors[userID])
	}

	return nil
}

func (c commands) addUserCommand(ctx context.Context, args []string) error {
	fs := newFlagSet("add-user", c.out)
	userID := fs.String("id", "", "upstream user id (required)")
	name := fs.String("name", "", "display name")
	token := fs.String("token", "", "NYT-S session token (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := c.addUser(ctx, *userID, *name, *token)
	if err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}

	fmt.Fprintf(c.out, "stored user %s (%s)\n", user.UserID, user.Username())
	return nil
}
