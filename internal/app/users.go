package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Amund211/ministats/internal/domain"
)

type ListUsers func(ctx context.Context) ([]domain.User, error)

func BuildListUsers(userRepo userRepository) ListUsers {
	return func(ctx context.Context) ([]domain.User, error) {
		users, err := userRepo.ListUsers(ctx)
		if err != nil {
			// NOTE: userRepository implementations handle their own error reporting
			return nil, fmt.Errorf("%w: could not list users: %w", domain.ErrLoadFailed, err)
		}
		return users, nil
	}
}

type AddUser func(ctx context.Context, userID, displayName, token string) (domain.User, error)

func BuildAddUser(userRepo userRepository, nowFunc func() time.Time) AddUser {
	return func(ctx context.Context, userID, displayName, token string) (domain.User, error) {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return domain.User{}, fmt.Errorf("user id must not be empty")
		}
		if strings.TrimSpace(token) == "" {
			return domain.User{}, fmt.Errorf("%w: token must not be empty", domain.ErrInvalidToken)
		}

		user := domain.User{
			UserID:      userID,
			DisplayName: strings.TrimSpace(displayName),
			Token:       token,
			CreatedAt:   nowFunc(),
		}

		err := userRepo.StoreUser(ctx, user)
		if err != nil {
			// NOTE: userRepository implementations handle their own error reporting
			return domain.User{}, fmt.Errorf("could not store user: %w", err)
		}

		return user, nil
	}
}
