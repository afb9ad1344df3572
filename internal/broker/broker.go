// Package broker provides the publish/subscribe exchange between the gateway
// and the domain tier, with drivers for RabbitMQ, NATS, Kafka and memory.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yyvfuruta/employees/internal/env"
)

var (
	ErrUnknownDriver = errors.New("unknown exchange driver")
	ErrUnknownQueue  = errors.New("queue has no binding")
)

// Delivery is a message handed to a Handler.
type Delivery struct {
	Queue      string
	RoutingKey string
	Body       []byte
	// Attempt starts at 1 and grows with every redelivery.
	Attempt int
}

// Handler handles messages consumed from a queue.
type Handler interface {
	HandleMessage(ctx context.Context, d Delivery) error
}

type HandlerFunc func(ctx context.Context, d Delivery) error

func (f HandlerFunc) HandleMessage(ctx context.Context, d Delivery) error { return f(ctx, d) }

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Subscriber consumes a queue one message at a time. Subscribe blocks until
// ctx is done or the underlying stream ends.
type Subscriber interface {
	Subscribe(ctx context.Context, queue string, h Handler) error
}

type Exchange interface {
	Publisher
	Subscriber
	Close() error
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. The message is parked at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type Config struct {
	Driver     string
	MaxRetries int
	RetryDelay time.Duration
}

func ConfigFromEnv() (Config, error) {
	maxRetries, err := env.Int("BROKER_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}

	retryDelay, err := env.Duration("BROKER_RETRY_DELAY", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Driver:     env.String("EXCHANGE_DRIVER", "rabbitmq"),
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
	}, nil
}

// Open connects the exchange selected by cfg.Driver.
func Open(cfg Config, logger *slog.Logger) (Exchange, error) {
	switch cfg.Driver {
	case "rabbitmq":
		return NewRabbitMQ(cfg, logger)
	case "nats":
		return NewNATS(cfg, logger)
	case "kafka":
		return NewKafka(cfg, logger)
	case "memory":
		return NewMemory(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
