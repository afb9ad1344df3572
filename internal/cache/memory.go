package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig holds the sturdyc sizing options.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
}

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           10000,
		NumShards:          64,
		TTL:                10 * time.Minute,
		EvictionPercentage: 10,
	}
}

func (c MemoryConfig) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("cache capacity must be greater than 0")
	case c.NumShards <= 0:
		return fmt.Errorf("cache shards must be greater than 0")
	case c.TTL <= 0:
		return fmt.Errorf("cache ttl must be greater than 0")
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return fmt.Errorf("cache eviction percentage must be between 1 and 100")
	}
	return nil
}

// Memory is an in-process cache on top of sturdyc.
type Memory struct {
	client *sturdyc.Client[[]byte]
}

var _ Cache = (*Memory)(nil)

func NewMemory(cfg MemoryConfig) (*Memory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
	)
	return &Memory{client: client}, nil
}

func (m *Memory) Get(ctx context.Context, ns Namespace, key string, dst any) (bool, error) {
	data, ok := m.client.Get(storageKey(ns, key))
	if !ok {
		return false, nil
	}
	if err := decode(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Put(ctx context.Context, ns Namespace, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	m.client.Set(storageKey(ns, key), data)
	return nil
}

func (m *Memory) Evict(ctx context.Context, ns Namespace, key string) error {
	m.client.Delete(storageKey(ns, key))
	return nil
}

func (m *Memory) Clear(ctx context.Context, ns Namespace) error {
	prefix := namespacePrefix(ns)
	for _, key := range m.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			m.client.Delete(key)
		}
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() error { return nil }
