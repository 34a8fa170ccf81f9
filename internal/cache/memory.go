package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMaxEntries = 1024

// Memory keeps entries in an expiring LRU local to the process.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory creates an in-process store bounded to maxEntries.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Memory{lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := m.lru.Get(SafeKey(key))
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.lru.Add(SafeKey(key), value)
	return nil
}
