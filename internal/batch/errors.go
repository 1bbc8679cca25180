package batch

import "errors"

var (
	ErrNoResumes   = errors.New("no resumes to analyze")
	ErrUnavailable = errors.New("service unavailable")
	ErrRejected    = errors.New("request rejected")
	ErrTimeout     = errors.New("analysis did not finish in time")
)
