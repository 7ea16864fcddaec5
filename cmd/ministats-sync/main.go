package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/Amund211/ministats/internal/adapters/database"
	"github.com/Amund211/ministats/internal/adapters/puzzleprovider"
	"github.com/Amund211/ministats/internal/adapters/puzzlerepository"
	"github.com/Amund211/ministats/internal/adapters/solutionrepository"
	"github.com/Amund211/ministats/internal/adapters/userrepository"
	"github.com/Amund211/ministats/internal/app"
	"github.com/Amund211/ministats/internal/config"
	"github.com/Amund211/ministats/internal/logging"
	"github.com/Amund211/ministats/internal/ratelimiting"
	"github.com/Amund211/ministats/internal/reporting"
)

// newLogger writes Cloud Logging JSON to w. Stdout is reserved for command output.
func newLogger(w io.Writer, gcpProjectID string) *slog.Logger {
	handler := logging.NewGoogleCloudTracingLogHandler(logging.NewGoogleCloudJSONHandler(w), gcpProjectID)
	return slog.New(handler).With("component", "ministats-sync")
}

func main() {
	logger := newLogger(os.Stderr, "")

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fail("Failed to load .env", "error", err.Error())
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger = newLogger(os.Stderr, conf.GCPProjectID())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.SentryDSN() != "" {
		flush, err := reporting.InitSentry(conf.SentryDSN(), conf.Environment())
		if err != nil {
			fail("Failed to initialize Sentry", "error", err.Error())
		}
		defer flush()
	}
	ctx = reporting.WithHub(ctx)
	ctx = logging.AddToContext(ctx, logger)

	db, err := database.NewCloudsqlPostgresDatabase(conf)
	if err != nil {
		fail("Failed to initialize database connection", "error", err.Error())
	}
	defer db.Close()

	schema := database.GetSchemaName(!conf.IsProduction())
	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schema)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}

	userRepo := userrepository.NewPostgres(db, schema)
	puzzleRepo := puzzlerepository.NewPostgres(db, schema)
	solutionRepo := solutionrepository.NewPostgres(db, schema)

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}
	provider := puzzleprovider.NewNYT(
		httpClient,
		conf.NYTBaseURL(),
		conf.NYTToken(),
		ratelimiting.NewWindowLimiter(10, 5*time.Second, time.Now, time.After),
		time.Now,
	)

	refreshPuzzles := app.BuildRefreshPuzzles(provider, puzzleRepo)
	refreshUserSolutions := app.BuildRefreshUserSolutions(provider, solutionRepo, time.Now)

	cmds := commands{
		refreshPuzzles:              refreshPuzzles,
		refreshUserSolutionsInRange: app.BuildRefreshUserSolutionsInRange(userRepo, puzzleRepo, refreshUserSolutions, time.Now),
		refreshDaily:                app.BuildRefreshDaily(refreshPuzzles, refreshUserSolutions, userRepo, time.Now),
		addUser:                     app.BuildAddUser(userRepo, time.Now),
		nowFunc:                     time.Now,
		out:                         os.Stdout,
	}

	err = cmds.run(ctx, os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fail("Command failed", "error", err.Error())
	}
}
