package domain

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrPuzzleNotFound         = errors.New("puzzle not found")
	ErrLoadFailed             = errors.New("failed to load data")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrInvalidToken           = errors.New("invalid upstream token")
)
