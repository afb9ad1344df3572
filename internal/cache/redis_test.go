package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// newTestRedis connects to TEST_REDIS_ADDR. Every test works in namespaces
// of its own and removes them when done.
func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *redis.Client) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping %s: %v", addr, err)
	}

	c := NewWithClient(rdb, ttl)
	t.Cleanup(func() { c.Close() })
	return c, rdb
}

func testNamespace(t *testing.T, name string) Namespace {
	t.Helper()
	return Namespace(fmt.Sprintf("test-%d:%s", time.Now().UnixNano(), name))
}

func TestRedis_GetPutEvict(t *testing.T) {
	c, _ := newTestRedis(t, time.Minute)
	ctx := context.Background()
	ns := testNamespace(t, "by-id")
	t.Cleanup(func() { c.Clear(ctx, ns) })

	var got record
	hit, err := c.Get(ctx, ns, "missing", &got)
	if err != nil || hit {
		t.Fatalf("Get missing = %v, %v; want miss without error", hit, err)
	}

	want := record{ID: "1", Name: "Ada"}
	if err := c.Put(ctx, ns, "k", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	hit, err = c.Get(ctx, ns, "k", &got)
	if err != nil || !hit || got != want {
		t.Fatalf("Get = %+v, %v, %v", got, hit, err)
	}

	if err := c.Evict(ctx, ns, "k"); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if hit, _ := c.Get(ctx, ns, "k", &got); hit {
		t.Fatal("evicted key still present")
	}
}

func TestRedis_PutSetsTTL(t *testing.T) {
	c, rdb := newTestRedis(t, time.Minute)
	ctx := context.Background()
	ns := testNamespace(t, "all")
	t.Cleanup(func() { c.Clear(ctx, ns) })

	if err := c.Put(ctx, ns, "all", []string{"a"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ttl, err := rdb.TTL(ctx, storageKey(ns, "all")).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v, want within (0, 1m]", ttl)
	}
}

func TestRedis_ClearIsScopedToNamespace(t *testing.T) {
	c, rdb := newTestRedis(t, time.Minute)
	ctx := context.Background()

	ns := testNamespace(t, "by-id")
	sibling := ns + "-2"
	other := testNamespace(t, "all")
	t.Cleanup(func() {
		c.Clear(ctx, ns)
		c.Clear(ctx, sibling)
		c.Clear(ctx, other)
	})

	// More keys than one SCAN batch.
	for i := 0; i < 3*scanBatch+7; i++ {
		if err := c.Put(ctx, ns, fmt.Sprintf("k%d", i), i); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := c.Put(ctx, sibling, "k", 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, other, "all", 1); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(ctx, ns); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	left, err := rdb.Keys(ctx, namespacePrefix(ns)+"*").Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Fatalf("%d keys survived Clear", len(left))
	}

	var n int
	if hit, _ := c.Get(ctx, sibling, "k", &n); !hit {
		t.Fatal("Clear removed a namespace sharing the name prefix")
	}
	if hit, _ := c.Get(ctx, other, "all", &n); !hit {
		t.Fatal("Clear removed another namespace")
	}
}
