package extract

import "errors"

// Sentinel kinds for extraction failures.
var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrTooLarge        = errors.New("document too large")
	ErrNoText          = errors.New("no extractable text")
)
