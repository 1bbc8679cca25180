package amqp

import (
	"time"

	"github.com/okian/atscore/pkg/logger"
)

// Option configures a Consumer.
type Option func(*Consumer)

// WithQueue sets the queue name.
func WithQueue(name string) Option {
	return func(c *Consumer) {
		if name != "" {
			c.queue = name
		}
	}
}

// WithPrefetch sets how many unacked deliveries the broker may push.
func WithPrefetch(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.prefetch = n
		}
	}
}

// WithRequeueDelay sets the pause before a requeued delivery is returned,
// so a full local queue is not hammered.
func WithRequeueDelay(d time.Duration) Option {
	return func(c *Consumer) {
		if d >= 0 {
			c.requeueDelay = d
		}
	}
}

// WithReconnectBackoff sets the wait between connection attempts.
func WithReconnectBackoff(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Consumer) { c.log = l }
}
