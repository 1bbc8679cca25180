package service

import "errors"

var ErrNotStarted = errors.New("service is not started")
