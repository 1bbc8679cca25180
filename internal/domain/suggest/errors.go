package suggest

import "errors"

var (
	// ErrNoSuggestions is returned when a completion holds no parseable block.
	ErrNoSuggestions = errors.New("no suggestions in completion")
	// ErrEmptyCompletion is returned when a completion is blank.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrRateLimited wraps a limiter wait that could not be satisfied.
	ErrRateLimited = errors.New("completion rate limited")
)
