package broker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Fatal("Permanent(nil) should be nil")
	}

	base := errors.New("bad payload")
	err := Permanent(base)
	if !IsPermanent(err) {
		t.Fatal("expected permanent")
	}
	if !errors.Is(err, base) {
		t.Fatal("permanent error should unwrap to its cause")
	}
	if IsPermanent(base) {
		t.Fatal("plain error should not be permanent")
	}
}

func TestRoutingKeyFor(t *testing.T) {
	key, err := RoutingKeyFor(EmployeeDeleteQueue)
	if err != nil || key != EmployeeDeleteRoutingKey {
		t.Fatalf("got %q, %v", key, err)
	}

	if _, err := RoutingKeyFor("nope"); !errors.Is(err, ErrUnknownQueue) {
		t.Fatalf("want ErrUnknownQueue, got %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "carrier-pigeon"}, discardLogger())
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("want ErrUnknownDriver, got %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("EXCHANGE_DRIVER", "")
	t.Setenv("BROKER_MAX_RETRIES", "5")
	t.Setenv("BROKER_RETRY_DELAY", "2s")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Driver != "rabbitmq" || cfg.MaxRetries != 5 || cfg.RetryDelay != 2*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDeliver_RetriesThenGivesUp(t *testing.T) {
	var attempts []int
	h := HandlerFunc(func(ctx context.Context, d Delivery) error {
		attempts = append(attempts, d.Attempt)
		return errors.New("store unavailable")
	})

	err := deliver(context.Background(), h, Delivery{}, 2, time.Millisecond)
	if err == nil {
		t.Fatal("expected error after retries")
	}
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Fatalf("attempts = %v", attempts)
	}
}

func TestDeliver_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	h := HandlerFunc(func(ctx context.Context, d Delivery) error {
		calls++
		return Permanent(errors.New("malformed"))
	})

	if err := deliver(context.Background(), h, Delivery{}, 5, time.Millisecond); !IsPermanent(err) {
		t.Fatalf("want permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDeliver_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	h := HandlerFunc(func(ctx context.Context, d Delivery) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err := deliver(context.Background(), h, Delivery{}, 3, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestMemory_RoutesByKey(t *testing.T) {
	m := NewMemory(Config{MaxRetries: 0}, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Publish(ctx, EmployeePutRoutingKey, []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.Publish(ctx, "employee.unknown", []byte("x")); err != nil {
		t.Fatalf("publish unbound key: %v", err)
	}

	if got := m.Pending(EmployeePutQueue); got != 1 {
		t.Fatalf("pending put = %d", got)
	}
	if got := m.Pending(EmployeePostQueue); got != 0 {
		t.Fatalf("pending post = %d", got)
	}

	received := make(chan Delivery, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.Subscribe(ctx, EmployeePutQueue, HandlerFunc(func(ctx context.Context, d Delivery) error {
			received <- d
			return nil
		}))
	}()

	select {
	case d := <-received:
		if d.RoutingKey != EmployeePutRoutingKey || d.Queue != EmployeePutQueue || string(d.Body) != `{"id":"1"}` {
			t.Fatalf("unexpected delivery: %+v", d)
		}
		if d.Attempt != 1 {
			t.Fatalf("attempt = %d", d.Attempt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("subscribe returned %v", err)
	}
}

func TestMemory_ParksFailedMessages(t *testing.T) {
	m := NewMemory(Config{MaxRetries: 1, RetryDelay: time.Millisecond}, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	go m.Subscribe(ctx, EmployeeDeleteQueue, HandlerFunc(func(ctx context.Context, d Delivery) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("boom")
	}))

	if err := m.Publish(ctx, EmployeeDeleteRoutingKey, []byte("id")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for len(m.Parked()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("message was never parked")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestMemory_SubscribeUnknownQueue(t *testing.T) {
	m := NewMemory(Config{}, discardLogger())
	err := m.Subscribe(context.Background(), "nope", HandlerFunc(func(context.Context, Delivery) error { return nil }))
	if !errors.Is(err, ErrUnknownQueue) {
		t.Fatalf("want ErrUnknownQueue, got %v", err)
	}
}
