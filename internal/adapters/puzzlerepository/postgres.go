package puzzlerepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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
	tracer := otel.Tracer("ministats/puzzlerepository/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

type dbPuzzle struct {
	PuzzleID    int       `db:"puzzle_id"`
	PrintDate   time.Time `db:"print_date"`
	PublishType string    `db:"publish_type"`
	Author      string    `db:"author"`
	Editor      string    `db:"editor"`
	Title       string    `db:"title"`
	FormatType  string    `db:"format_type"`
}

func (p dbPuzzle) toDomain() domain.Puzzle {
	return domain.Puzzle{
		PuzzleID:    p.PuzzleID,
		PrintDate:   domain.TruncateToDay(p.PrintDate),
		PublishType: p.PublishType,
		Author:      p.Author,
		Editor:      p.Editor,
		Title:       p.Title,
		FormatType:  p.FormatType,
	}
}

const puzzleColumns = "puzzle_id, print_date, publish_type, author, editor, title, format_type"

func (p *Postgres) GetPuzzle(ctx context.Context, puzzleID int) (domain.Puzzle, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetPuzzle")
	defer span.End()

	var puzzle dbPuzzle
	err := p.db.GetContext(
		ctx,
		&puzzle,
		fmt.Sprintf("SELECT %s FROM %s.puzzles WHERE puzzle_id = $1", puzzleColumns, pq.QuoteIdentifier(p.schema)),
		puzzleID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Puzzle{}, domain.ErrPuzzleNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select puzzle: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"puzzleID": fmt.Sprint(puzzleID),
		})
		return domain.Puzzle{}, err
	}

	return puzzle.toDomain(), nil
}

// GetPuzzles returns the puzzles of the given type printed within the date range, ordered by print date
func (p *Postgres) GetPuzzles(ctx context.Context, publishType string, dateRange domain.DateRange) ([]domain.Puzzle, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetPuzzles")
	defer span.End()

	conditions := []string{"publish_type = $1"}
	args := []any{publishType}
	if dateRange.Start != nil {
		args = append(args, domain.FormatDate(*dateRange.Start))
		conditions = append(conditions, fmt.Sprintf("print_date >= $%d::date", len(args)))
	}
	if dateRange.End != nil {
		args = append(args, domain.FormatDate(*dateRange.End))
		conditions = append(conditions, fmt.Sprintf("print_date <= $%d::date", len(args)))
	}

	var dbPuzzles []dbPuzzle
	err := p.db.SelectContext(
		ctx,
		&dbPuzzles,
		fmt.Sprintf(
			"SELECT %s FROM %s.puzzles WHERE %s ORDER BY print_date ASC, puzzle_id ASC",
			puzzleColumns,
			pq.QuoteIdentifier(p.schema),
			strings.Join(conditions, " AND "),
		),
		args...,
	)
	if err != nil {
		err := fmt.Errorf("failed to select puzzles: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"publishType": publishType,
			"dateRange":   dateRange.String(),
		})
		return nil, err
	}

	puzzles := make([]domain.Puzzle, 0, len(dbPuzzles))
	for _, puzzle := range dbPuzzles {
		puzzles = append(puzzles, puzzle.toDomain())
	}
	return puzzles, nil
}

// StorePuzzles upserts the puzzles in a single statement
func (p *Postgres) StorePuzzles(ctx context.Context, puzzles []domain.Puzzle) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.StorePuzzles")
	defer span.End()

	if len(puzzles) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(puzzles))
	printDates := make([]string, 0, len(puzzles))
	publishTypes := make([]string, 0, len(puzzles))
	authors := make([]string, 0, len(puzzles))
	editors := make([]string, 0, len(puzzles))
	titles := make([]string, 0, len(puzzles))
	formatTypes := make([]string, 0, len(puzzles))
	for _, puzzle := range puzzles {
		ids = append(ids, int64(puzzle.PuzzleID))
		printDates = append(printDates, domain.FormatDate(puzzle.PrintDate))
		publishTypes = append(publishTypes, puzzle.PublishType)
		authors = append(authors, puzzle.Author)
		editors = append(editors, puzzle.Editor)
		titles = append(titles, puzzle.Title)
		formatTypes = append(formatTypes, puzzle.FormatType)
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

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO puzzles
		(puzzle_id, print_date, publish_type, author, editor, title, format_type, updated_at)
		SELECT puzzle_id, print_date, publish_type, author, editor, title, format_type, NOW()
		FROM UNNEST($1::integer[], $2::date[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[])
			AS input(puzzle_id, print_date, publish_type, author, editor, title, format_type)
		ON CONFLICT (puzzle_id)
		DO UPDATE SET
			print_date = EXCLUDED.print_date,
			publish_type = EXCLUDED.publish_type,
			author = EXCLUDED.author,
			editor = EXCLUDED.editor,
			title = EXCLUDED.title,
			format_type = EXCLUDED.format_type,
			updated_at = EXCLUDED.updated_at`,
		pq.Array(ids),
		pq.Array(printDates),
		pq.Array(publishTypes),
		pq.Array(authors),
		pq.Array(editors),
		pq.Array(titles),
		pq.Array(formatTypes),
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert puzzles: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"count": fmt.Sprint(len(puzzles)),
		})
		return err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	return nil
}
