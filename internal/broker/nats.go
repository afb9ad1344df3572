package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/yyvfuruta/employees/internal/env"
)

// natsConn is the part of *nats.Conn the driver uses.
type natsConn interface {
	Publish(subj string, data []byte) error
	Flush() error
	Drain() error
	IsClosed() bool
}

type natsSubscription interface {
	NextMsgWithContext(ctx context.Context) (*nats.Msg, error)
	Unsubscribe() error
}

// NATS is an Exchange on core NATS. Routing keys become subjects under the
// exchange name and queues become queue groups. Core NATS has no
// redelivery, so failed messages are retried in-process.
//
// Core NATS does not store messages: anything published while no member of
// a queue group is subscribed is lost. Use the rabbitmq driver when the
// domain tier may be down while the gateway accepts writes.
type NATS struct {
	nc        natsConn
	subscribe func(subject, queue string) (natsSubscription, error)
	logger    *slog.Logger
	cfg       Config
}

var _ Exchange = (*NATS)(nil)

func NewNATS(cfg Config, logger *slog.Logger) (*NATS, error) {
	url := env.String("NATS_URL", nats.DefaultURL)

	nc, err := nats.Connect(url, nats.Name("employees"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subscribe := func(subject, queue string) (natsSubscription, error) {
		sub, err := nc.QueueSubscribeSync(subject, queue)
		if err != nil {
			return nil, err
		}
		return sub, nil
	}

	return &NATS{nc: nc, subscribe: subscribe, logger: logger, cfg: cfg}, nil
}

func subject(routingKey string) string {
	return EmployeeExchangeName + "." + routingKey
}

func (n *NATS) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := n.nc.Publish(subject(routingKey), body); err != nil {
		return fmt.Errorf("nats publish %s: %w", routingKey, err)
	}
	return n.nc.Flush()
}

func (n *NATS) Subscribe(ctx context.Context, queue string, h Handler) error {
	routingKey, err := RoutingKeyFor(queue)
	if err != nil {
		return err
	}

	sub, err := n.subscribe(subject(routingKey), queue)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", queue, err)
	}
	defer sub.Unsubscribe()

	for {
		msg, err := sub.NextMsgWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("nats next message on %s: %w", queue, err)
		}

		d := Delivery{Queue: queue, RoutingKey: routingKey, Body: msg.Data}
		if err := deliver(ctx, h, d, n.cfg.MaxRetries, n.cfg.RetryDelay); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			n.logger.Error("Parking message", "queue", queue, "error", err)
			if perr := n.nc.Publish(subject(DeadQueue(queue)), msg.Data); perr != nil {
				n.logger.Error("Failed to park message", "queue", queue, "error", perr)
			}
		}
	}
}

func (n *NATS) Close() error {
	if n.nc == nil || n.nc.IsClosed() {
		return nil
	}
	return n.nc.Drain()
}
