package solutionrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Amund211/ministats/internal/domain"
	"github.com/Amund211/ministats/internal/reporting"
)

type Postgres struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("ministats/solutionrepository/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

type dbSolution struct {
	UserID              string    `db:"user_id"`
	PuzzleID            int       `db:"puzzle_id"`
	Solved              bool      `db:"solved"`
	SecondsSpentSolving int       `db:"seconds_spent_solving"`
	PercentFilled       int       `db:"percent_filled"`
	AutocheckEnabled    bool      `db:"autocheck_enabled"`
	QueriedAt           time.Time `db:"queried_at"`
}

func (s dbSolution) toDomain() domain.Solution {
	return domain.Solution{
		UserID:              s.UserID,
		PuzzleID:            s.PuzzleID,
		Solved:              s.Solved,
		SecondsSpentSolving: s.SecondsSpentSolving,
		PercentFilled:       s.PercentFilled,
		AutocheckEnabled:    s.AutocheckEnabled,
		QueriedAt:           s.QueriedAt,
	}
}

const solutionColumns = "user_id, puzzle_id, solved, seconds_spent_solving, percent_filled, autocheck_enabled, queried_at"

func (p *Postgres) selectSolutions(ctx context.Context, where string, args ...any) ([]domain.Solution, error) {
	var dbSolutions []dbSolution
	err := p.db.SelectContext(
		ctx,
		&dbSolutions,
		fmt.Sprintf(
			"SELECT %s FROM %s.solutions %s ORDER BY puzzle_id ASC, user_id ASC",
			solutionColumns,
			pq.QuoteIdentifier(p.schema),
			where,
		),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select solutions: %w", err)
	}

	solutions := make([]domain.Solution, 0, len(dbSolutions))
	for _, solution := range dbSolutions {
		solutions = append(solutions, solution.toDomain())
	}
	return solutions, nil
}

func (p *Postgres) GetSolutionsForUser(ctx context.Context, userID string) ([]domain.Solution, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetSolutionsForUser")
	defer span.End()

	solutions, err := p.selectSolutions(ctx, "WHERE user_id = $1", userID)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"userID": userID,
		})
		return nil, err
	}
	return solutions, nil
}

func (p *Postgres) GetSolutionsForPuzzle(ctx context.Context, puzzleID int) ([]domain.Solution, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetSolutionsForPuzzle")
	defer span.End()

	solutions, err := p.selectSolutions(ctx, "WHERE puzzle_id = $1", puzzleID)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"puzzleID": fmt.Sprint(puzzleID),
		})
		return nil, err
	}
	return solutions, nil
}

func (p *Postgres) GetAllSolutions(ctx context.Context) ([]domain.Solution, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetAllSolutions")
	defer span.End()

	solutions, err := p.selectSolutions(ctx, "")
	if err != nil {
		reporting.Report(ctx, err)
		return nil, err
	}
	return solutions, nil
}

// StoreSolutions upserts the solutions. The latest query of a (user, puzzle) pair wins.
func (p *Postgres) StoreSolutions(ctx context.Context, solutions []domain.Solution) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.StoreSolutions")
	defer span.End()

	if len(solutions) == 0 {
		return nil
	}

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	for _, solution := range solutions {
		_, err = txx.NamedExecContext(
			ctx,
			`INSERT INTO solutions
			(user_id, puzzle_id, solved, seconds_spent_solving, percent_filled, autocheck_enabled, queried_at)
			VALUES (:user_id, :puzzle_id, :solved, :seconds_spent_solving, :percent_filled, :autocheck_enabled, :queried_at)
			ON CONFLICT (user_id, puzzle_id)
			DO UPDATE SET
				solved = EXCLUDED.solved,
				seconds_spent_solving = EXCLUDED.seconds_spent_solving,
				percent_filled = EXCLUDED.percent_filled,
				autocheck_enabled = EXCLUDED.autocheck_enabled,
				queried_at = EXCLUDED.queried_at
			WHERE solutions.queried_at <= EXCLUDED.queried_at`,
			dbSolution{
				UserID:              solution.UserID,
				PuzzleID:            solution.PuzzleID,
				Solved:              solution.Solved,
				SecondsSpentSolving: solution.SecondsSpentSolving,
				PercentFilled:       solution.PercentFilled,
				AutocheckEnabled:    solution.AutocheckEnabled,
				QueriedAt:           solution.QueriedAt,
			},
		)
		if err != nil {
			err := fmt.Errorf("failed to upsert solution: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"userID":   solution.UserID,
				"puzzleID": fmt.Sprint(solution.PuzzleID),
			})
			return err
		}
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	return nil
}
