package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"EMAScan/internal/domain/models"
	pcache "EMAScan/pkg/cache"
	"EMAScan/pkg/logger"
)

const (
	DefaultKey = "crypto_scanner_results"
	DefaultTTL = time.Hour
)

// Entry is the persisted cache slot.
type Entry struct {
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ResultCache keeps the last complete result payload in a single slot with a TTL.
// Stale entries are deleted when read; nothing sweeps them in the background.
type ResultCache struct {
	store pcache.Store
	key   string
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger
}

type Option func(*ResultCache)

func WithKey(key string) Option { return func(c *ResultCache) { c.key = key } }

func WithTTL(ttl time.Duration) Option { return func(c *ResultCache) { c.ttl = ttl } }

func WithClock(now func() time.Time) Option { return func(c *ResultCache) { c.now = now } }

func WithLogger(l *logger.Logger) Option { return func(c *ResultCache) { c.log = l } }

// NewResultCache wraps a store.
func NewResultCache(store pcache.Store, opts ...Option) *ResultCache {
	c := &ResultCache{
		store: store,
		key:   DefaultKey,
		ttl:   DefaultTTL,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Write stores payload with the current time, replacing any prior entry.
// Failures are logged and swallowed.
func (c *ResultCache) Write(ctx context.Context, payload *models.ResultPayload) {
	if payload == nil {
		return
	}
	if err := c.write(ctx, payload); err != nil {
		c.log.Warn("result cache write failed", logger.String("key", c.key), logger.Error(err))
	}
}

func (c *ResultCache) write(ctx context.Context, payload *models.ResultPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return pcache.SetJSON(ctx, c.store, c.key, Entry{Timestamp: c.now().UnixMilli(), Data: data}, 0)
}

// ReadFresh returns the cached payload if it is younger than the TTL.
// An expired entry is deleted and reported as absent. Storage errors also read as absent.
func (c *ResultCache) ReadFresh(ctx context.Context) (*models.ResultPayload, bool) {
	entry, ok := c.entry(ctx)
	if !ok {
		return nil, false
	}

	if c.age(entry) >= c.ttl {
		if err := c.store.Delete(ctx, c.key); err != nil {
			c.log.Warn("result cache expire failed", logger.String("key", c.key), logger.Error(err))
		}
		return nil, false
	}

	var payload models.ResultPayload
	if err := json.Unmarshal(entry.Data, &payload); err != nil {
		c.log.Warn("result cache payload corrupt", logger.String("key", c.key), logger.Error(err))
		return nil, false
	}
	return &payload, true
}

// Age returns how old the stored entry is, regardless of freshness.
func (c *ResultCache) Age(ctx context.Context) (time.Duration, bool) {
	entry, ok := c.entry(ctx)
	if !ok {
		return 0, false
	}
	return c.age(entry), true
}

// Clear deletes the entry unconditionally.
func (c *ResultCache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		return models.NewScanError(models.KindCache, "cache.clear", err)
	}
	return nil
}

// TTL returns the configured time-to-live.
func (c *ResultCache) TTL() time.Duration { return c.ttl }

func (c *ResultCache) entry(ctx context.Context) (Entry, bool) {
	entry, err := pcache.GetJSON[Entry](ctx, c.store, c.key)
	if err != nil {
		if !errors.Is(err, pcache.ErrCacheMiss) {
			c.log.Warn("result cache read failed", logger.String("key", c.key), logger.Error(err))
		}
		return Entry{}, false
	}
	return entry, true
}

func (c *ResultCache) age(e Entry) time.Duration {
	return c.now().Sub(time.UnixMilli(e.Timestamp))
}
