package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/rabbitmq/amqp091-go"

	"tbudget/internal/core"
	"tbudget/internal/log"
	"tbudget/internal/ports"
)

var _ ports.EventPublisher = (*Client)(nil)

// channel is the part of *amqp091.Channel the client publishes through.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// DialOptions controls how hard NewClient tries to reach the broker.
type DialOptions struct {
	Attempts uint
	Delay    time.Duration
}

// DefaultDialOptions keeps a one-shot command from hanging on a dead broker.
func DefaultDialOptions() DialOptions {
	return DialOptions{Attempts: 3, Delay: 500 * time.Millisecond}
}

type Client struct {
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	queueName    string
	now          func() time.Time
}

// NewClient dials the broker, retrying per opts, and declares a durable
// direct exchange with one bound queue.
func NewClient(ctx context.Context, url, exchangeName, queueName string, opts DialOptions) (*Client, error) {
	var conn *amqp091.Connection
	err := retry.Do(
		func() error {
			var err error
			conn, err = amqp091.Dial(url)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.OnRetry(func(n uint, err error) {
			amqpLogger(ctx).WarnContext(ctx, "AMQP dial failed, retrying", "attempt", n+1, log.FieldError, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      ch,
		exchangeName: exchangeName,
		queueName:    queueName,
		now:          time.Now,
	}

	if err := setup(ch, exchangeName, queueName); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	// Declare exchange
	err := ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = ch.QueueBind(
		queueName,    // queue name
		queueName,    // routing key (same as queue name for direct exchange)
		exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishRecordAdded publishes a record.added message
func (c *Client) PublishRecordAdded(ctx context.Context, r core.Record) error {
	return c.publish(ctx, NewRecordAddedMessage(r, c.now()), EventRecordAdded)
}

// PublishRecordChanged publishes a record.edited or record.deleted message
func (c *Client) PublishRecordChanged(ctx context.Context, op string, ordinal int) error {
	msg := NewRecordChangedMessage(op, ordinal, c.now())
	return c.publish(ctx, msg, msg.Event)
}

// PublishBudgetAlert publishes a budget.alert message
func (c *Client) PublishBudgetAlert(ctx context.Context, a core.Alert) error {
	return c.publish(ctx, NewBudgetAlertMessage(a, c.now()), EventBudgetAlert)
}

type message interface {
	ToJSON() ([]byte, error)
}

func (c *Client) publish(ctx context.Context, msg message, event string) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Type:         event,
			Timestamp:    c.now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}

	amqpLogger(ctx).DebugContext(ctx, "Published ledger event",
		"event", event,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func amqpLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentAMQP)
}
