package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"vitrine/internal/platform/tracer"
)

const redisPostalKeyPrefix = "postal:"

// ErrCacheMiss is returned by Cache.Get when no fresh entry exists.
var ErrCacheMiss = errors.New("postal cache miss")

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vitrine_postal_cache_lookups_total",
	Help: "Postal lookup cache reads, labeled by result",
}, []string{"result"})

// Cache stores successful lookups keyed by normalized postal code.
type Cache interface {
	Get(ctx context.Context, postalCode string) (*Address, error)
	Set(ctx context.Context, postalCode string, addr *Address) error
}

// RedisCache keeps entries in Redis with TTL eviction.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, postalCode string) (*Address, error) {
	data, err := c.client.Get(ctx, redisPostalKeyPrefix+postalCode).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("find postal cache: %w", err)
	}
	var addr Address
	if err := json.Unmarshal(data, &addr); err != nil {
		return nil, fmt.Errorf("decode postal cache: %w", err)
	}
	return &addr, nil
}

func (c *RedisCache) Set(ctx context.Context, postalCode string, addr *Address) error {
	if addr == nil {
		return fmt.Errorf("address is required")
	}
	payload, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("encode postal cache: %w", err)
	}
	if err := c.client.Set(ctx, redisPostalKeyPrefix+postalCode, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("save postal cache: %w", err)
	}
	return nil
}

type memoryEntry struct {
	addr      Address
	expiresAt time.Time
}

// MemoryCache is a TTL map used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, postalCode string) (*Address, error) {
	c.mu.RLock()
	e, ok := c.entries[postalCode]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, ErrCacheMiss
	}
	addr := e.addr
	return &addr, nil
}

func (c *MemoryCache) Set(_ context.Context, postalCode string, addr *Address) error {
	if addr == nil {
		return fmt.Errorf("address is required")
	}
	c.mu.Lock()
	c.entries[postalCode] = memoryEntry{addr: *addr, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// Source is an uncached postal lookup.
type Source interface {
	Lookup(ctx context.Context, postalCode string) (*Address, error)
}

// Cached is a read-through cache in front of a Source. Cache failures are
// logged and fall through to the source.
type Cached struct {
	source Source
	cache  Cache
	tracer tracer.Tracer
	logger *slog.Logger
}

func NewCached(source Source, cache Cache, tr tracer.Tracer, logger *slog.Logger) *Cached {
	if tr == nil {
		tr = tracer.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{source: source, cache: cache, tracer: tr, logger: logger}
}

func (c *Cached) Lookup(ctx context.Context, postalCode string) (addr *Address, err error) {
	code, err := NormalizePostalCode(postalCode)
	if err != nil {
		return nil, err
	}
	ctx, span := c.tracer.Start(ctx, tracer.SpanPostalLookup, tracer.String(tracer.AttrPostalCode, code))
	defer func() { span.End(err) }()

	cached, cerr := c.cache.Get(ctx, code)
	switch {
	case cerr == nil:
		cacheLookups.WithLabelValues("hit").Inc()
		span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
		return cached, nil
	case errors.Is(cerr, ErrCacheMiss):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		cacheLookups.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "postal cache read failed", "error", cerr)
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	addr, err = c.source.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, code, addr); err != nil {
		c.logger.WarnContext(ctx, "postal cache write failed", "error", err)
	}
	return addr, nil
}
