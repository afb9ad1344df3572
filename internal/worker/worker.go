// Package worker runs the listeners that consume the employee queues.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yyvfuruta/employees/internal/broker"
)

// Worker consumes a set of queues, each with its own handler.
type Worker struct {
	subscriber broker.Subscriber
	logger     *slog.Logger
	handlers   map[string]broker.Handler
}

func New(subscriber broker.Subscriber, logger *slog.Logger) *Worker {
	return &Worker{
		subscriber: subscriber,
		logger:     logger,
		handlers:   make(map[string]broker.Handler),
	}
}

// Handle registers h for queue. A later call for the same queue replaces it.
func (w *Worker) Handle(queue string, h broker.Handler) {
	w.handlers[queue] = h
}

// Run subscribes to every registered queue and blocks until ctx is done or
// a subscription fails. The first failure cancels the other subscriptions
// and is returned.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for queue, h := range w.handlers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w.logger.Info("Waiting for messages", "queue", queue)
			err := w.subscriber.Subscribe(ctx, queue, w.logged(h))
			if err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("Subscription ended", "queue", queue, "error", err)
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}

	wg.Wait()
	w.logger.Info("Worker shutdown complete.")
	return firstErr
}

func (w *Worker) logged(h broker.Handler) broker.Handler {
	return broker.HandlerFunc(func(ctx context.Context, d broker.Delivery) error {
		start := time.Now()
		err := h.HandleMessage(ctx, d)

		attrs := []any{"queue", d.Queue, "attempt", d.Attempt, "duration", time.Since(start)}
		if err != nil {
			w.logger.Error("Error handling message", append(attrs, "error", err)...)
			return err
		}
		w.logger.Info("Message handled", attrs...)
		return nil
	})
}
