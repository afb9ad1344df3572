package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/yyvfuruta/employees/internal/broker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunDispatchesByQueue(t *testing.T) {
	exchange := broker.NewMemory(broker.Config{}, discardLogger())

	posts := make(chan string, 1)
	deletes := make(chan string, 1)

	w := New(exchange, discardLogger())
	w.Handle(broker.EmployeePostQueue, broker.HandlerFunc(func(ctx context.Context, d broker.Delivery) error {
		posts <- string(d.Body)
		return nil
	}))
	w.Handle(broker.EmployeeDeleteQueue, broker.HandlerFunc(func(ctx context.Context, d broker.Delivery) error {
		deletes <- string(d.Body)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := exchange.Publish(ctx, broker.EmployeeDeleteRoutingKey, []byte("id-1")); err != nil {
		t.Fatal(err)
	}
	if err := exchange.Publish(ctx, broker.EmployeePostRoutingKey, []byte(`{"name":"Ada"}`)); err != nil {
		t.Fatal(err)
	}

	if got := receive(t, deletes); got != "id-1" {
		t.Fatalf("delete body = %q", got)
	}
	if got := receive(t, posts); got != `{"name":"Ada"}` {
		t.Fatalf("post body = %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil after cancel", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type failingSubscriber struct{ err error }

func (f failingSubscriber) Subscribe(ctx context.Context, queue string, h broker.Handler) error {
	if queue == broker.EmployeePutQueue {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func TestRunReturnsSubscriptionFailure(t *testing.T) {
	boom := errors.New("channel closed")

	w := New(failingSubscriber{err: boom}, discardLogger())
	noop := broker.HandlerFunc(func(context.Context, broker.Delivery) error { return nil })
	w.Handle(broker.EmployeePostQueue, noop)
	w.Handle(broker.EmployeePutQueue, noop)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("Run = %v, want %v", err, boom)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after a subscription failed")
	}
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}
