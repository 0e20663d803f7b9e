package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/order-saga/internal/domains/orders/ports"
)

// memoryStore is a process-local TTL cache standing in for Redis.
type memoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	product   ports.Product
	expiresAt time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: map[string]memoryItem{}, now: time.Now}
}

func (s *memoryStore) Get(_ context.Context, key string) (ports.Product, bool, error) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return ports.Product{}, false, nil
	}
	if s.now().After(item.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return ports.Product{}, false, nil
	}
	return item.product, true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, product ports.Product, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryItem{product: product, expiresAt: s.now().Add(ttl)}
	return nil
}
