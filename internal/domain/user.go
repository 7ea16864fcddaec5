package domain

import (
	"time"
)

type User struct {
	UserID      string
	DisplayName string
	// Upstream session token used when syncing the user's solutions
	Token     string
	CreatedAt time.Time
}

// Username returns the display name, falling back to the user id when no name is set
func (u User) Username() string {
	if u.DisplayName == "" {
		return u.UserID
	}
	return u.DisplayName
}
