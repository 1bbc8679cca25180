package analysis

import "errors"

// Sentinel errors for precondition failures. Every input error wraps
// ErrInvalidInput.
var (
	ErrInvalidInput           = errors.New("invalid analysis input")
	ErrEmptyResume            = errors.New("resume text is empty")
	ErrEmptyJobDescription    = errors.New("job description is empty")
	ErrJobDescriptionTooShort = errors.New("job description is too short")
	ErrUnknownMode            = errors.New("unknown candidate mode")
)
