package extract

import "github.com/okian/atscore/pkg/logger"

// Option applies a configuration option to a Chain.
type Option func(*Chain)

// WithStrategies replaces the default strategy order.
func WithStrategies(s ...Strategy) Option {
	return func(c *Chain) {
		if len(s) > 0 {
			c.strategies = s
		}
	}
}

// WithMaxBytes sets the largest accepted document.
func WithMaxBytes(n int64) Option {
	return func(c *Chain) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithLogger sets the chain logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.log = l
		}
	}
}
