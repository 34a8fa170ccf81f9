// Package cache memoises expensive lookups (reporting queries, gateway
// statistics) behind a pluggable store: an in-process LRU, JSON files on disk,
// or Redis. Every entry expires after the configured TTL, 24 hours by default.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/metrics"
)

// DefaultTTL is how long a cached value stays valid.
const DefaultTTL = 24 * time.Hour

// Store persists opaque values under string keys.
type Store interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Get returns the value and true on a hit; expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Config selects and configures a backend.
type Config struct {
	Backend     string // memory, disk or redis
	Dir         string
	TTL         time.Duration
	MaxEntries  int
	RedisClient *redis.Client
}

// New builds the store named by cfg.Backend.
func New(cfg Config) (Store, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.MaxEntries, cfg.TTL), nil
	case "disk":
		return NewDisk(cfg.Dir, cfg.TTL)
	case "redis":
		if cfg.RedisClient == nil {
			return nil, fmt.Errorf("redis cache requires a client")
		}
		return NewRedis(cfg.RedisClient, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Cached returns the value stored under key, computing and storing it with fn
// on a miss. Store failures are logged and fall through to fn.
func Cached[T any](ctx context.Context, store Store, logger *zap.Logger, key string, fn func(context.Context) (T, error)) (T, error) {
	if store == nil {
		return fn(ctx)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	data, ok, err := store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup(store.Name(), "error")
		logger.Warn("cache read failed", zap.String("backend", store.Name()), zap.String("key", key), zap.Error(err))
	case ok:
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			metrics.RecordCacheLookup(store.Name(), "hit")
			return value, nil
		}
		metrics.RecordCacheLookup(store.Name(), "error")
		logger.Warn("discarding undecodable cache entry", zap.String("backend", store.Name()), zap.String("key", key))
	default:
		metrics.RecordCacheLookup(store.Name(), "miss")
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := store.Set(ctx, key, encoded); err != nil {
		logger.Warn("cache write failed", zap.String("backend", store.Name()), zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// SafeKey maps an arbitrary key onto a filesystem and Redis friendly name:
// a readable prefix followed by a digest of the full key.
func SafeKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])[:16]

	var b strings.Builder
	for _, r := range key {
		if b.Len() >= 48 {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String() + "-" + digest
}
