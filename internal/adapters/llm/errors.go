package llm

import "errors"

var (
	ErrMissingAPIKey = errors.New("llm: api key is required")
	ErrEmptyResponse = errors.New("llm: model returned no text")
)
