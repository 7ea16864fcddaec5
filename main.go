package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/Amund211/ministats/internal/adapters/cache"
	"github.com/Amund211/ministats/internal/adapters/database"
	"github.com/Amund211/ministats/internal/adapters/puzzlerepository"
	"github.com/Amund211/ministats/internal/adapters/solutionrepository"
	"github.com/Amund211/ministats/internal/adapters/userrepository"
	"github.com/Amund211/ministats/internal/app"
	"github.com/Amund211/ministats/internal/config"
	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/logging"
	"github.com/Amund211/ministats/internal/ports"
	"github.com/Amund211/ministats/internal/reporting"
	"github.com/Amund211/ministats/internal/telemetry"
)

const serviceName = "ministats"

func main() {
	instanceID := uuid.New().String()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("Failed to load .env", "error", err.Error())
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}

	handler := logging.NewGoogleCloudJSONHandler(os.Stdout)
	if conf.GCPProjectID() != "" {
		handler = logging.NewGoogleCloudTracingLogHandler(handler, conf.GCPProjectID())
	}
	logger := slog.New(handler).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := telemetry.SetupOTelSDK(ctx, serviceName)
	if err != nil {
		fail("Failed to set up OpenTelemetry", "error", err.Error())
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
		}
	}()

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	logger.Info("Initializing database connection")
	db, err := database.NewCloudsqlPostgresDatabase(conf)
	if err != nil {
		fail("Failed to initialize database connection", "error", err.Error())
	}
	defer db.Close()
	logger.Info("Initialized database connection")

	repositorySchemaName := database.GetSchemaName(!conf.IsProduction())

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, repositorySchemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}

	userRepo := userrepository.NewPostgres(db, repositorySchemaName)
	puzzleRepo := puzzlerepository.NewPostgres(db, repositorySchemaName)
	solutionRepo := solutionrepository.NewPostgres(db, repositorySchemaName)
	logger.Info("Initialized repositories")

	var userStatsCache cache.Cache[domain.UserStats]
	var leaderboardCache cache.Cache[[]domain.LeaderboardEntry]
	if conf.RedisURL() != "" {
		redisOptions, err := redis.ParseURL(conf.RedisURL())
		if err != nil {
			fail("Failed to parse redis url", "error", err.Error())
		}
		redisClient := redis.NewClient(redisOptions)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// The cache degrades to computing locally while redis is down
			logger.Warn("Failed to ping redis", "error", err.Error())
		}

		userStatsCache = cache.NewRedisCache[domain.UserStats](redisClient, "ministats:userstats", 5*time.Minute)
		leaderboardCache = cache.NewRedisCache[[]domain.LeaderboardEntry](redisClient, "ministats:leaderboard", 15*time.Minute)
		logger.Info("Initialized redis caches")
	} else {
		userStatsCache = cache.NewTTLCache[domain.UserStats](5 * time.Minute)
		leaderboardCache = cache.NewTTLCache[[]domain.LeaderboardEntry](15 * time.Minute)
		logger.Info("Initialized in-memory caches")
	}

	allowedOrigins, err := ports.NewDomainSuffixes(conf.CORSDomainSuffixes()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}
	if conf.IsDevelopment() {
		allowedOrigins = allowedOrigins.WithLocalhost()
	}

	getUserStats := app.BuildGetUserStatsWithCache(
		userStatsCache,
		app.BuildGetUserStats(userRepo, puzzleRepo, solutionRepo, time.Now),
		time.Now,
	)
	getLeaderboard := app.BuildGetLeaderboardWithCache(
		leaderboardCache,
		app.BuildGetLeaderboard(userRepo, puzzleRepo, solutionRepo, time.Now),
		time.Now,
	)
	getPuzzleTopSolutions := app.BuildGetPuzzleTopSolutions(userRepo, puzzleRepo, solutionRepo)
	listUsers := app.BuildListUsers(userRepo)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", ports.MakeHealthHandler())

	mux.HandleFunc("OPTIONS /v1/users", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"GET /v1/users",
		ports.MakeListUsersHandler(
			listUsers,
			allowedOrigins,
			logger.With("port", "users"),
			sentryMiddleware,
		),
	)

	mux.HandleFunc("OPTIONS /v1/users/{userID}/stats", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"GET /v1/users/{userID}/stats",
		ports.MakeGetUserStatsHandler(
			getUserStats,
			allowedOrigins,
			logger.With("port", "userstats"),
			sentryMiddleware,
		),
	)

	leaderboards := []struct {
		path string
		kind domain.LeaderboardKind
	}{
		{path: "/v1/leaderboard/average-time", kind: domain.LeaderboardAverageSpeed},
		{path: "/v1/leaderboard/puzzles-solved", kind: domain.LeaderboardPuzzlesSolved},
		{path: "/v1/leaderboard/longest-streak", kind: domain.LeaderboardLongestStreak},
	}
	for _, leaderboard := range leaderboards {
		mux.HandleFunc("OPTIONS "+leaderboard.path, ports.BuildCORSHandler(allowedOrigins))
		mux.HandleFunc(
			"GET "+leaderboard.path,
			ports.MakeGetLeaderboardHandler(
				leaderboard.kind,
				getLeaderboard,
				allowedOrigins,
				logger.With("port", "leaderboard", "kind", leaderboard.kind.String()),
				sentryMiddleware,
			),
		)
	}

	mux.HandleFunc("OPTIONS /v1/puzzles/{puzzleID}/solutions", ports.BuildCORSHandler(allowedOrigins))
	mux.HandleFunc(
		"GET /v1/puzzles/{puzzleID}/solutions",
		ports.MakeGetPuzzleSolutionsHandler(
			getPuzzleTopSolutions,
			allowedOrigins,
			logger.With("port", "puzzlesolutions"),
			sentryMiddleware,
		),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", conf.Port()),
		Handler:           otelhttp.NewHandler(ports.NewClientIPHandler(mux, conf.TrustedProxyHops()), serviceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}
	}()

	logger.Info("Init complete", "port", conf.Port())
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
