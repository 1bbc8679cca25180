package suggest

import (
	"time"

	"github.com/okian/atscore/pkg/logger"
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithAttempts sets how many times a completion is tried.
func WithAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.attempts = n
		}
	}
}

// WithBackoff sets the base delay between attempts. Attempt n waits n times
// the base.
func WithBackoff(d time.Duration) Option {
	return func(g *Generator) {
		if d >= 0 {
			g.backoff = d
		}
	}
}

// WithRatePerMinute limits completion calls per minute.
func WithRatePerMinute(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.ratePerMinute = n
		}
	}
}

// WithMaxFailures sets the consecutive failures that open the breaker.
func WithMaxFailures(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxFailures = uint32(n)
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}
