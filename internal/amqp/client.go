package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"freelanceflow/internal/events"
	"freelanceflow/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var errDeliveriesClosed = errors.New("message channel closed")

// Client publishes domain events to a durable queue and consumes them back.
// Publishing goes through a circuit breaker so a broker outage does not
// slow down every request.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

var _ events.Publisher = (*Client)(nil)

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}
	if _, err := client.ensureChannel(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn, c.channel = conn, channel
	return channel, nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name on a direct exchange
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Publish implements events.Publisher
func (c *Client) Publish(ctx context.Context, e events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish event %s: circuit breaker is open", e.ID)
	}

	msg, err := toPublishing(e)
	if err != nil {
		return err
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, msg); err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.reset()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.DebugContext(ctx, "Published event",
		log.FieldEventID, e.ID,
		log.FieldEventType, string(e.Type),
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Consume delivers queued events to handler until ctx ends, reconnecting with
// exponential backoff when the broker connection drops.
func (c *Client) Consume(ctx context.Context, handler events.Handler) error {
	attempt := 0
	for {
		handled, err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if !errors.Is(err, errDeliveriesClosed) && !isConnectionError(err) {
			return err
		}
		if handled > 0 {
			attempt = 0
		}
		wait := exponentialBackoff(attempt)
		c.logger.WarnContext(ctx, "Consumer lost connection, retrying",
			log.FieldError, err,
			"attempt", attempt+1,
			"backoff", wait.String())
		c.reset()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		attempt++
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler events.Handler) (int, error) {
	ch, err := c.ensureChannel()
	if err != nil {
		return 0, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return 0, fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // manual ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return 0, fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming events", "queue", c.queueName)

	handled := 0
	for {
		select {
		case <-ctx.Done():
			return handled, ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return handled, errDeliveriesClosed
			}

			e, err := fromDelivery(delivery)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to decode message", log.FieldError, err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(ctx, e); err != nil {
				c.logger.ErrorContext(ctx, "Failed to handle event",
					log.FieldError, err,
					log.FieldEventID, e.ID,
					log.FieldEventType, string(e.Type))
				c.retry(ctx, ch, delivery, e)
				continue
			}

			delivery.Ack(false)
			handled++
		}
	}
}

// retry puts a failed delivery back at the end of the queue with its attempt
// count raised, and drops it once the attempts run out. Dropped messages go
// to the queue's dead-letter exchange when one is configured.
func (c *Client) retry(ctx context.Context, ch *amqp091.Channel, delivery amqp091.Delivery, e events.Event) {
	msg, ok := retryPublishing(delivery)
	if !ok {
		c.logger.ErrorContext(ctx, "Dropping event after repeated failures",
			log.FieldEventID, e.ID,
			log.FieldEventType, string(e.Type),
			"attempts", maxDeliveryAttempts)
		delivery.Nack(false, false)
		return
	}
	if err := ch.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, msg); err != nil {
		c.logger.ErrorContext(ctx, "Failed to republish event", log.FieldError, err, log.FieldEventID, e.ID)
		delivery.Nack(false, true)
		return
	}
	delivery.Ack(false)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures && atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
		c.logger.Warn("AMQP circuit breaker opened", "failures", n)
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.channel != nil {
		err = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		if cerr := c.conn.Close(); cerr != nil && !errors.Is(cerr, amqp091.ErrClosed) {
			err = cerr
		}
		c.conn = nil
	}
	return err
}
