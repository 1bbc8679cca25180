package api

import (
	"github.com/okian/atscore/internal/adapters/extract"
	"github.com/okian/atscore/pkg/logger"
)

const (
	defaultMaxLimit   = 100
	defaultMaxBodyLen = 1 << 20
)

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit caps the leaderboard page size.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithExtractor sets the document extractor used by uploads.
func WithExtractor(c *extract.Chain) Option {
	return func(s *Server) {
		if c != nil {
			s.extractor = c
		}
	}
}

// WithMaxBodyBytes caps JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}
