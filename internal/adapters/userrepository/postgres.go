package userrepository

import (
	"context"
	"database/sql"
	"errors"
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
	tracer := otel.Tracer("ministats/userrepository/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

type dbUser struct {
	UserID      string    `db:"user_id"`
	DisplayName string    `db:"display_name"`
	Token       string    `db:"token"`
	CreatedAt   time.Time `db:"created_at"`
}

func (u dbUser) toDomain() domain.User {
	return domain.User{
		UserID:      u.UserID,
		DisplayName: u.DisplayName,
		Token:       u.Token,
		CreatedAt:   u.CreatedAt,
	}
}

func (p *Postgres) GetUser(ctx context.Context, userID string) (domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetUser")
	defer span.End()

	var user dbUser
	err := p.db.GetContext(
		ctx,
		&user,
		fmt.Sprintf(
			"SELECT user_id, display_name, token, created_at FROM %s.users WHERE user_id = $1",
			pq.QuoteIdentifier(p.schema),
		),
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select user: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": userID,
		})
		return domain.User{}, err
	}

	return user.toDomain(), nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListUsers")
	defer span.End()

	var dbUsers []dbUser
	err := p.db.SelectContext(
		ctx,
		&dbUsers,
		fmt.Sprintf(
			"SELECT user_id, display_name, token, created_at FROM %s.users ORDER BY user_id ASC",
			pq.QuoteIdentifier(p.schema),
		),
	)
	if err != nil {
		err := fmt.Errorf("failed to select users: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	users := make([]domain.User, 0, len(dbUsers))
	for _, user := range dbUsers {
		users = append(users, user.toDomain())
	}
	return users, nil
}

// StoreUser inserts the user, or updates the name and token of an existing one
func (p *Postgres) StoreUser(ctx context.Context, user domain.User) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.StoreUser")
	defer span.End()

	if user.UserID == "" {
		err := fmt.Errorf("userID is empty")
		reporting.Report(ctx, err)
		return err
	}

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.users
		(user_id, display_name, token, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token = EXCLUDED.token`,
			pq.QuoteIdentifier(p.schema)),
		user.UserID,
		user.DisplayName,
		user.Token,
		user.CreatedAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert or update user: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": user.UserID,
		})
		return err
	}

	return nil
}
