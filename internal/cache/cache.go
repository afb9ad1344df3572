// Package cache provides a namespaced cache with redis and in-memory drivers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/yyvfuruta/employees/internal/env"
)

var ErrUnknownDriver = errors.New("unknown cache driver")

// Namespace is an independent key region. Clearing one namespace leaves the
// others untouched.
type Namespace string

// Cache stores msgpack-encoded values under namespaced keys.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether
	// it was found.
	Get(ctx context.Context, ns Namespace, key string, dst any) (bool, error)
	Put(ctx context.Context, ns Namespace, key string, value any) error
	Evict(ctx context.Context, ns Namespace, key string) error
	// Clear removes every key of ns.
	Clear(ctx context.Context, ns Namespace) error
	Ping(ctx context.Context) error
	Close() error
}

const keySeparator = "::"

func storageKey(ns Namespace, key string) string {
	return string(ns) + keySeparator + key
}

func namespacePrefix(ns Namespace) string {
	return string(ns) + keySeparator
}

func encode(value any) ([]byte, error) {
	b, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache encode: %w", err)
	}
	return b, nil
}

func decode(data []byte, dst any) error {
	if err := msgpack.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("cache decode: %w", err)
	}
	return nil
}

type Config struct {
	Driver string
	TTL    time.Duration
}

func ConfigFromEnv() (Config, error) {
	ttl, err := env.Duration("CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Driver: env.String("CACHE_DRIVER", "redis"),
		TTL:    ttl,
	}, nil
}

// Open builds the cache selected by cfg.Driver.
func Open(cfg Config) (Cache, error) {
	switch cfg.Driver {
	case "redis":
		return New(cfg.TTL)
	case "memory":
		memCfg := DefaultMemoryConfig()
		memCfg.TTL = cfg.TTL
		return NewMemory(memCfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
