package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("analysis not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidID    = errors.New("record id is empty")
)
