package broker

import (
	"context"
	"log/slog"
	"sync"
)

// Memory is an in-process direct exchange. Each bound queue is a buffered
// channel, so it only connects publishers and subscribers of one process.
// With no subscriber, Publish blocks once a queue holds memoryQueueSize
// messages, until ctx is done.
type Memory struct {
	queues map[string]chan Delivery
	logger *slog.Logger
	cfg    Config

	mu     sync.Mutex
	parked []Delivery
}

var _ Exchange = (*Memory)(nil)

const memoryQueueSize = 128

func NewMemory(cfg Config, logger *slog.Logger) *Memory {
	queues := make(map[string]chan Delivery, len(Bindings))
	for queue := range Bindings {
		queues[queue] = make(chan Delivery, memoryQueueSize)
	}
	return &Memory{queues: queues, logger: logger, cfg: cfg}
}

// Publish routes body to every queue bound with routingKey. Messages with no
// matching binding are dropped, as a direct exchange does.
func (m *Memory) Publish(ctx context.Context, routingKey string, body []byte) error {
	for queue, key := range Bindings {
		if key != routingKey {
			continue
		}

		d := Delivery{
			Queue:      queue,
			RoutingKey: routingKey,
			Body:       append([]byte(nil), body...),
		}
		select {
		case m.queues[queue] <- d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, queue string, h Handler) error {
	if _, err := RoutingKeyFor(queue); err != nil {
		return err
	}
	ch := m.queues[queue]

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-ch:
			if err := deliver(ctx, h, d, m.cfg.MaxRetries, m.cfg.RetryDelay); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				m.logger.Error("Parking message", "queue", queue, "error", err)
				m.mu.Lock()
				m.parked = append(m.parked, d)
				m.mu.Unlock()
			}
		}
	}
}

// Parked returns the messages that could not be handled.
func (m *Memory) Parked() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Delivery(nil), m.parked...)
}

// Pending reports how many messages wait on queue.
func (m *Memory) Pending(queue string) int {
	return len(m.queues[queue])
}

func (m *Memory) Close() error { return nil }
