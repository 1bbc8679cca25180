package amqp

import "errors"

var (
	ErrMalformed = errors.New("malformed analysis message")
	ErrNoURL     = errors.New("amqp url is required")
)
