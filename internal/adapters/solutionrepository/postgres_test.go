package solutionrepository

import (
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/Amund211/ministats/internal/adapters/database"
	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/domaintest"
)

func newPostgres(t *testing.T, db *sqlx.DB, schemaSuffix string) *Postgres {
	require.NotEmpty(t, schemaSuffix, "schemaSuffix must not be empty")
	schema := fmt.Sprintf("solutions_repo_test_%s", schemaSuffix)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schema)))

	err := database.NewDatabaseMigrator(db, logger).Migrate(t.Context(), schema)
	require.NoError(t, err)

	return NewPostgres(db, schema)
}

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping db tests in short mode.")
	}
	t.Parallel()

	queriedAt := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	requireEqualSolutions := func(t *testing.T, expected, actual []domain.Solution) {
		t.Helper()
		require.Len(t, actual, len(expected))
		for i := range expected {
			require.WithinDuration(t, expected[i].QueriedAt, actual[i].QueriedAt, time.Millisecond)
			// Time can get truncated and change location when round-tripping to the database
			actual[i].QueriedAt = expected[i].QueriedAt
		}
		require.Equal(t, expected, actual)
	}

	solutions := []domain.Solution{
		domaintest.NewSolutionBuilder("ada", 1).WithSeconds(30).WithQueriedAt(queriedAt).Build(),
		domaintest.NewSolutionBuilder("ada", 2).Unsolved().WithQueriedAt(queriedAt).Build(),
		domaintest.NewSolutionBuilder("bob", 1).WithSeconds(45).WithAutocheck().WithQueriedAt(queriedAt).Build(),
	}

	t.Run("store and get", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		p := newPostgres(t, db, "store_and_get")
		require.NoError(t, p.StoreSolutions(ctx, solutions))

		forUser, err := p.GetSolutionsForUser(ctx, "ada")
		require.NoError(t, err)
		requireEqualSolutions(t, solutions[:2], forUser)

		forPuzzle, err := p.GetSolutionsForPuzzle(ctx, 1)
		require.NoError(t, err)
		requireEqualSolutions(t, []domain.Solution{solutions[0], solutions[2]}, forPuzzle)

		all, err := p.GetAllSolutions(ctx)
		require.NoError(t, err)
		requireEqualSolutions(t, []domain.Solution{solutions[0], solutions[2], solutions[1]}, all)

		none, err := p.GetSolutionsForUser(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, none)
	})

	t.Run("one row per user and puzzle, latest wins", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		p := newPostgres(t, db, "upsert")

		unsolved := domaintest.NewSolutionBuilder("ada", 1).Unsolved().WithQueriedAt(queriedAt).Build()
		solved := domaintest.NewSolutionBuilder("ada", 1).WithSeconds(50).WithQueriedAt(queriedAt.Add(time.Hour)).Build()

		require.NoError(t, p.StoreSolutions(ctx, []domain.Solution{unsolved}))
		require.NoError(t, p.StoreSolutions(ctx, []domain.Solution{solved}))
		// An older result does not overwrite a newer one
		require.NoError(t, p.StoreSolutions(ctx, []domain.Solution{unsolved}))

		stored, err := p.GetSolutionsForUser(ctx, "ada")
		require.NoError(t, err)
		requireEqualSolutions(t, []domain.Solution{solved}, stored)
	})

	t.Run("store nothing", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		p := newPostgres(t, db, "store_nothing")
		require.NoError(t, p.StoreSolutions(ctx, nil))
	})
}
