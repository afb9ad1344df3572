package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/yyvfuruta/employees/internal/env"
)

// RabbitMQ is an Exchange backed by an AMQP direct exchange.
//
// Every bound queue Q dead-letters rejected messages into Q.retry, which
// holds them for the retry delay and then routes them back through the
// exchange. Messages that keep failing are moved to Q.dead.
type RabbitMQ struct {
	conn   *amqp.Connection
	logger *slog.Logger
	cfg    Config

	mu sync.Mutex
	ch *amqp.Channel
}

var _ Exchange = (*RabbitMQ)(nil)

// channelPublisher is the part of *amqp.Channel used to park messages.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := NewConnection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	b := &RabbitMQ{
		conn:   conn,
		logger: logger,
		cfg:    cfg,
		ch:     ch,
	}

	if err := b.Setup(); err != nil {
		b.Close()
		return nil, err
	}

	return b, nil
}

func NewConnection() (*amqp.Connection, error) {
	vars, err := env.Require("RABBITMQ_HOST", "RABBITMQ_PORT", "RABBITMQ_USER_NAME", "RABBITMQ_USER_PASS")
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"amqp://%s:%s@%s:%s",
		vars["RABBITMQ_USER_NAME"], vars["RABBITMQ_USER_PASS"], vars["RABBITMQ_HOST"], vars["RABBITMQ_PORT"],
	)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	return conn, nil
}

// Setup declares the exchange and, for each binding, the work, retry and
// dead queues.
func (b *RabbitMQ) Setup() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.ch.ExchangeDeclare(
		EmployeeExchangeName, // name
		EmployeeExchangeType, // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare an exchange: %w", err)
	}

	for queue, routingKey := range Bindings {
		if err := b.declare(queue, routingKey); err != nil {
			return err
		}
	}

	return nil
}

func (b *RabbitMQ) declare(queue, routingKey string) error {
	declarations := []struct {
		name string
		args amqp.Table
	}{
		{queue, workQueueArgs(queue)},
		{queue + retrySuffix, retryQueueArgs(routingKey, b.cfg)},
		{DeadQueue(queue), nil},
	}

	for _, d := range declarations {
		_, err := b.ch.QueueDeclare(
			d.name, // name
			true,   // durable
			false,  // delete when unused
			false,  // exclusive
			false,  // no-wait
			d.args, // arguments
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", d.name, err)
		}
	}

	err := b.ch.QueueBind(
		queue,                // queue name
		routingKey,           // routing key
		EmployeeExchangeName, // exchange
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}

	return nil
}

func workQueueArgs(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queue + retrySuffix,
	}
}

func retryQueueArgs(routingKey string, cfg Config) amqp.Table {
	return amqp.Table{
		"x-message-ttl":             cfg.RetryDelay.Milliseconds(),
		"x-dead-letter-exchange":    EmployeeExchangeName,
		"x-dead-letter-routing-key": routingKey,
	}
}

// Publish publishes a persistent message to the employee exchange.
func (b *RabbitMQ) Publish(ctx context.Context, routingKey string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.ch.PublishWithContext(ctx,
		EmployeeExchangeName, // exchange
		routingKey,           // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  ContentType(routingKey),
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Subscribe consumes queue on its own channel with a prefetch of one.
func (b *RabbitMQ) Subscribe(ctx context.Context, queue string, h Handler) error {
	if _, err := RoutingKeyFor(queue); err != nil {
		return err
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			b.handle(ctx, ch, queue, h, msg)
		}
	}
}

func (b *RabbitMQ) handle(ctx context.Context, ch channelPublisher, queue string, h Handler, msg amqp.Delivery) {
	d := Delivery{
		Queue:      queue,
		RoutingKey: msg.RoutingKey,
		Body:       msg.Body,
		Attempt:    int(rejectCount(msg.Headers, queue)) + 1,
	}

	err := h.HandleMessage(ctx, d)
	switch {
	case err == nil:
		msg.Ack(false)
	case !IsPermanent(err) && d.Attempt <= b.cfg.MaxRetries:
		b.logger.Warn("Retrying message", "queue", queue, "attempt", d.Attempt, "error", err)
		// Rejected messages are dead-lettered into the retry queue.
		msg.Nack(false, false)
	default:
		b.logger.Error("Parking message", "queue", queue, "attempt", d.Attempt, "error", err)
		if perr := park(ctx, ch, queue, msg, err); perr != nil {
			b.logger.Error("Failed to park message", "queue", queue, "error", perr)
			msg.Nack(false, false)
			return
		}
		msg.Ack(false)
	}
}

func park(ctx context.Context, ch channelPublisher, queue string, msg amqp.Delivery, cause error) error {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-parked-reason"] = cause.Error()

	return ch.PublishWithContext(ctx,
		"",               // default exchange
		DeadQueue(queue), // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			Headers:      headers,
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         msg.Body,
		},
	)
}

// rejectCount reads how many times the message was rejected from queue
// using the 'x-death' header.
func rejectCount(headers amqp.Table, queue string) int64 {
	if headers == nil {
		return 0
	}

	xDeath, ok := headers["x-death"]
	if !ok {
		return 0
	}

	xDeathSlice, ok := xDeath.([]any)
	if !ok {
		return 0
	}

	for _, h := range xDeathSlice {
		table, ok := h.(amqp.Table)
		if !ok {
			continue
		}

		if table["queue"] != queue || table["reason"] != "rejected" {
			continue
		}

		count, ok := table["count"].(int64)
		if !ok {
			return 0
		}
		return count
	}

	return 0
}

func (b *RabbitMQ) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.ch != nil {
		errs = append(errs, b.ch.Close())
	}
	if b.conn != nil {
		errs = append(errs, b.conn.Close())
	}
	return errors.Join(errs...)
}
