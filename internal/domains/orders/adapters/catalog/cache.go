package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/Apurer/order-saga/internal/domains/orders/ports"
)

// Store is the backing cache for product snapshots.
type Store interface {
	Get(ctx context.Context, key string) (ports.Product, bool, error)
	Set(ctx context.Context, key string, product ports.Product, ttl time.Duration) error
}

var _ ports.ProductCatalog = (*CachedCatalog)(nil)

// DefaultFlightTimeout bounds a shared upstream lookup.
const DefaultFlightTimeout = 5 * time.Second

// CachedCatalog is a cache-aside decorator. Concurrent misses for one product
// collapse into a single upstream call. Not-found answers are never cached.
type CachedCatalog struct {
	next          ports.ProductCatalog
	store         Store
	ttl           time.Duration
	flightTimeout time.Duration
	group         singleflight.Group
	logger        *slog.Logger
}

// CacheOption customises a CachedCatalog.
type CacheOption func(*CachedCatalog)

// WithFlightTimeout bounds the upstream lookup shared by collapsed callers.
func WithFlightTimeout(d time.Duration) CacheOption {
	return func(c *CachedCatalog) {
		if d > 0 {
			c.flightTimeout = d
		}
	}
}

func NewCachedCatalog(next ports.ProductCatalog, store Store, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *CachedCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CachedCatalog{next: next, store: store, ttl: ttl, flightTimeout: DefaultFlightTimeout, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *CachedCatalog) GetProduct(ctx context.Context, id string) (ports.Product, error) {
	key := cacheKey(id)
	if product, ok := c.lookup(ctx, key); ok {
		return product, nil
	}
	// The shared lookup outlives any single caller; each caller still
	// stops waiting when its own ctx ends.
	flight := c.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()
		if product, ok := c.lookup(flightCtx, key); ok {
			return product, nil
		}
		product, err := c.next.GetProduct(flightCtx, id)
		if err != nil {
			return ports.Product{}, err
		}
		if err := c.store.Set(flightCtx, key, product, c.ttl); err != nil {
			c.logger.Warn("product cache write failed", slog.String("product.id", id), slog.String("error", err.Error()))
		}
		return product, nil
	})
	select {
	case <-ctx.Done():
		return ports.Product{}, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return ports.Product{}, res.Err
		}
		return res.Val.(ports.Product), nil
	}
}

// lookup treats cache errors as misses.
func (c *CachedCatalog) lookup(ctx context.Context, key string) (ports.Product, bool) {
	product, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("product cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return ports.Product{}, false
	}
	return product, ok
}

func cacheKey(id string) string {
	return "product:" + id
}

type cachedProduct struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// RedisStore keeps snapshots in Redis as JSON.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (ports.Product, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ports.Product{}, false, nil
	}
	if err != nil {
		return ports.Product{}, false, err
	}
	var cached cachedProduct
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		return ports.Product{}, false, err
	}
	return ports.Product{ID: cached.ID, Name: cached.Name, Price: cached.Price}, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, product ports.Product, ttl time.Duration) error {
	payload, err := json.Marshal(cachedProduct{ID: product.ID, Name: product.Name, Price: product.Price})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}
