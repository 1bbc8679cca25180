// Package amqp feeds analysis requests from a RabbitMQ queue into the
// service and publishes requests onto it.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/pkg/logger"
	"github.com/okian/atscore/pkg/metrics"
)

const (
	DefaultQueue = "atscore.analyses"

	defaultPrefetch     = 8
	defaultRequeueDelay = 500 * time.Millisecond
	defaultBackoff      = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// Submitter accepts analysis jobs.
type Submitter interface {
	Submit(ctx context.Context, job model.Job) (id string, duplicate bool, err error)
}

// Consumer reads analysis requests from a durable queue with manual acks.
type Consumer struct {
	url          string
	queue        string
	prefetch     int
	requeueDelay time.Duration
	backoff      time.Duration

	sub Submitter
	log logger.Logger

	// session runs one connection; consume unless replaced in tests.
	session func(ctx context.Context) (started bool, err error)
}

// NewConsumer creates a Consumer. Nothing is dialed until Run.
func NewConsumer(url string, sub Submitter, opts ...Option) (*Consumer, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	c := &Consumer{
		url:          url,
		queue:        DefaultQueue,
		prefetch:     defaultPrefetch,
		requeueDelay: defaultRequeueDelay,
		backoff:      defaultBackoff,
		sub:          sub,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NamedOrDiscard("amqp")
	}
	c.session = c.consume
	return c, nil
}

// Run consumes until ctx is done, reconnecting with exponential backoff
// whenever the connection drops. The backoff starts over after a session
// that got as far as consuming.
func (c *Consumer) Run(ctx context.Context) error {
	var wait time.Duration
	for {
		started, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		wait = retryDelay(wait, c.backoff, started)
		c.log.Warn(ctx, "amqp consumer disconnected",
			logger.Error(err),
			logger.Bool("was_consuming", started),
			logger.Duration("retry_in", wait))
		metrics.RecordErrorByComponent("amqp", "disconnect")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// retryDelay returns the wait before the next dial given the previous one.
func retryDelay(prev, initial time.Duration, started bool) time.Duration {
	if started || prev <= 0 {
		return initial
	}
	return min(prev*2, maxBackoff)
}

// consume runs one connection until it closes or ctx is done. started
// reports whether deliveries were being consumed before it ended.
func (c *Consumer) consume(ctx context.Context) (started bool, err error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return false, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, c.queue); err != nil {
		return false, err
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return false, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx,
		c.queue, // queue name
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return false, fmt.Errorf("consume: %w", err)
	}
	c.log.Info(ctx, "amqp consumer started", logger.String("queue", c.queue), logger.Int("prefetch", c.prefetch))

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case aerr := <-closed:
			if aerr == nil {
				return true, errors.New("connection closed")
			}
			return true, aerr
		case d, ok := <-deliveries:
			if !ok {
				return true, errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// handle submits one delivery and settles it.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) { //nolint:gocritic // hugeParam: deliveries arrive by value
	job, err := Decode(d.Body)
	var (
		id  string
		dup bool
	)
	if err == nil {
		id, dup, err = c.sub.Submit(ctx, job)
	}

	disp := dispose(err)
	outcome := disp.String()
	var settleErr error
	switch disp {
	case ack:
		if dup {
			outcome = "duplicate"
		}
		settleErr = d.Ack(false)
	case reject:
		c.log.Warn(ctx, "dropping analysis message", logger.String("message_id", d.MessageId), logger.Error(err))
		settleErr = d.Reject(false)
	case requeue:
		c.log.Debug(ctx, "requeueing analysis message", logger.String("message_id", d.MessageId), logger.Error(err))
		if c.requeueDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(c.requeueDelay):
			}
		}
		settleErr = d.Nack(false, true)
	}
	metrics.RecordAMQPMessage(outcome)
	if settleErr != nil {
		c.log.Error(ctx, "could not settle delivery", logger.String("message_id", d.MessageId), logger.Error(settleErr))
		return
	}
	if id != "" {
		c.log.Debug(ctx, "analysis message accepted",
			logger.String("analysis_id", id),
			logger.Bool("duplicate", dup))
	}
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue, // queue name
		true,  // durable (survives broker restarts)
		false, // auto-delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return nil
}
