package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

// ConnectWithRetry keeps dialing with exponential backoff until the broker
// accepts the connection, maxElapsed passes or ctx is done. Errors that are
// not connection problems stop the retries immediately.
func ConnectWithRetry(ctx context.Context, url, exchangeName, queueName string, maxElapsed time.Duration) (*Client, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = maxElapsed

	var client *Client
	attempt := 0
	op := func() error {
		attempt++
		c, err := NewClient(url, exchangeName, queueName)
		if err == nil {
			client = c
			return nil
		}
		if !isConnectionError(err) {
			return backoff.Permanent(err)
		}
		slog.WarnContext(ctx, "AMQP connection failed, retrying",
			"attempt", attempt,
			"error", err)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("connect to AMQP after %d attempts: %w", attempt, err)
	}
	return client, nil
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var amqpErr *amqp091.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover || amqpErr.Code == amqp091.ConnectionForced
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "connection closed", "eof", "broken pipe", "closed network connection", "no such host", "i/o timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key equals the queue name on the direct exchange.
	err = c.channel.QueueBind(
		c.queueName,
		c.queueName,
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishLedgerSaved announces a rewritten month file.
func (c *Client) PublishLedgerSaved(ctx context.Context, folder, month, content string, entries int) error {
	body, err := NewLedgerSavedMessage(folder, month, content, entries).ToJSON()
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
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published ledger saved message",
		"folder", folder,
		"month", month,
		"entries", entries,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeLedgerSaved delivers messages to handler until ctx is done.
// Undecodable messages are dropped; handler failures are requeued.
func (c *Client) ConsumeLedgerSaved(ctx context.Context, handler func(context.Context, *LedgerSavedMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger saved messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			handleDelivery(ctx, delivery, handler)
		}
	}
}

// acknowledger is the part of amqp091.Delivery the consumer loop uses.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, d amqp091.Delivery, handler func(context.Context, *LedgerSavedMessage) error) {
	process(ctx, d.Body, d, handler)
}

func process(ctx context.Context, body []byte, ack acknowledger, handler func(context.Context, *LedgerSavedMessage) error) {
	msg, err := LedgerSavedMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"folder", msg.Folder,
			"month", msg.Month)
		_ = ack.Nack(false, true)
		return
	}

	_ = ack.Ack(false)
	slog.InfoContext(ctx, "Processed ledger saved message",
		"folder", msg.Folder,
		"month", msg.Month)
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
