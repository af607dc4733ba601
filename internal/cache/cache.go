// Package cache keeps rendered availability views (day marks, daily
// stats) out of the hot path. Redis is the primary store; when it is
// unreachable the cache degrades to an in-process map and periodically
// probes Redis to switch back.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"staypilot/internal/events"
)

// ViewCache stores marshalled view fragments under string keys.
type ViewCache interface {
	// Get unmarshals the cached value for key into out. The bool reports
	// whether the key was present and decodable.
	Get(ctx context.Context, key string, out interface{}) bool

	// Set stores val under key for the cache's TTL. Failures are
	// swallowed: a cache write must never fail the request.
	Set(ctx context.Context, key string, val interface{})

	// Delete drops the given keys.
	Delete(ctx context.Context, keys ...string)

	// DeletePrefix drops every key under the given prefix. Used by the
	// event-driven invalidator: view keys encode arbitrary date ranges,
	// so a booking write cannot enumerate the entries it staled.
	DeletePrefix(ctx context.Context, prefix string)
}

// DayMarksKey builds the cache key for the portfolio day marks over
// [start, end), both formatted YYYY-MM-DD.
func DayMarksKey(start, end string) string {
	return fmt.Sprintf("daymarks:%s:%s", start, end)
}

// StatsKey builds the cache key for portfolio stats on a date.
func StatsKey(date string) string {
	return "stats:" + date
}

// RedisCache is the primary ViewCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string, out interface{}) bool {
	hit, _ := c.get(ctx, key, out)
	return hit
}

func (c *RedisCache) Set(ctx context.Context, key string, val interface{}) {
	_ = c.set(ctx, key, val)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	_ = c.del(ctx, keys...)
}

// get distinguishes a miss (false, nil) from an outage (false, err) so
// the failover wrapper can tell them apart.
func (c *RedisCache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	if c.ttl <= 0 {
		return false, nil
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return json.Unmarshal([]byte(val), out) == nil, nil
}

func (c *RedisCache) set(ctx context.Context, key string, val interface{}) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(val)
	if err != nil {
		return nil
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) {
	_ = c.delPrefix(ctx, prefix)
}

func (c *RedisCache) delPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping reports whether Redis answers. The failover wrapper uses it as
// its recovery probe.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MemoryCache is the in-process fallback. Entries expire lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string, out interface{}) bool {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false
	}
	return json.Unmarshal(entry.data, out) == nil
}

func (c *MemoryCache) Set(_ context.Context, key string, val interface{}) {
	if c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// recoveryInterval is how long the failover cache waits before probing
// a downed primary again.
const recoveryInterval = time.Minute

// FailoverCache serves from the primary Redis cache and falls back to
// the in-memory cache when Redis misbehaves. After a failure it stops
// hitting Redis entirely and retries once per recoveryInterval.
type FailoverCache struct {
	primary  *RedisCache
	fallback ViewCache
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverCache(primary *RedisCache, fallback ViewCache, logger *zerolog.Logger) *FailoverCache {
	return &FailoverCache{primary: primary, fallback: fallback, logger: logger}
}

func (c *FailoverCache) Get(ctx context.Context, key string, out interface{}) bool {
	if c.usePrimary(ctx) {
		hit, err := c.primary.get(ctx, key, out)
		if err == nil {
			return hit
		}
		c.markDown(err)
	}
	return c.fallback.Get(ctx, key, out)
}

func (c *FailoverCache) Set(ctx context.Context, key string, val interface{}) {
	if c.usePrimary(ctx) {
		err := c.primary.set(ctx, key, val)
		if err == nil {
			return
		}
		c.markDown(err)
	}
	c.fallback.Set(ctx, key, val)
}

func (c *FailoverCache) Delete(ctx context.Context, keys ...string) {
	// Invalidation always hits both sides so a recovered primary never
	// resurrects a stale fallback entry, and vice versa.
	if c.usePrimary(ctx) {
		if err := c.primary.del(ctx, keys...); err != nil {
			c.markDown(err)
		}
	}
	c.fallback.Delete(ctx, keys...)
}

func (c *FailoverCache) DeletePrefix(ctx context.Context, prefix string) {
	if c.usePrimary(ctx) {
		if err := c.primary.delPrefix(ctx, prefix); err != nil {
			c.markDown(err)
		}
	}
	c.fallback.DeletePrefix(ctx, prefix)
}

func (c *FailoverCache) usePrimary(ctx context.Context) bool {
	if !c.isDown.Load() {
		return true
	}

	c.mu.Lock()
	due := time.Since(c.lastCheck) >= recoveryInterval
	if due {
		c.lastCheck = time.Now()
	}
	c.mu.Unlock()
	if !due {
		return false
	}

	if err := c.primary.Ping(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("redis still down, staying on memory cache")
		return false
	}
	c.isDown.Store(false)
	c.logger.Info().Msg("redis recovered, switching cache back")
	return true
}

func (c *FailoverCache) markDown(err error) {
	if c.isDown.CompareAndSwap(false, true) {
		c.mu.Lock()
		c.lastCheck = time.Now()
		c.mu.Unlock()
		c.logger.Error().Err(err).Msg("redis marked down, using memory cache")
	}
}

// Subscriber is the slice of the event bus the invalidator needs.
type Subscriber interface {
	Subscribe(eventType string, handler events.EventHandler)
}

// viewPrefixes are the key families a booking write can stale.
var viewPrefixes = []string{"daymarks:", "stats:"}

// InvalidateOnBookingEvents drops all cached views whenever the booking
// set changes. Wiping both key families is deliberate: a booking touches
// an arbitrary date range, so there is no way to name the exact entries
// it staled.
func InvalidateOnBookingEvents(bus Subscriber, vc ViewCache, logger *zerolog.Logger) {
	handler := func(event events.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, prefix := range viewPrefixes {
			vc.DeletePrefix(ctx, prefix)
		}
		logger.Debug().Str("event", event.Type).Msg("view cache invalidated")
		return nil
	}
	bus.Subscribe(events.TypeBookingCreated, handler)
	bus.Subscribe(events.TypeBookingCancelled, handler)
	bus.Subscribe(events.TypeImportCompleted, handler)
}
