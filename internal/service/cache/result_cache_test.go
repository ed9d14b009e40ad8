package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EMAScan/internal/domain/models"
	pcache "EMAScan/pkg/cache"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type brokenStore struct{ pcache.Store }

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("quota exceeded")
}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage unavailable")
}

func samplePayload() *models.ResultPayload {
	return &models.ResultPayload{
		Summary: models.Summary{TotalScanned: 2, TotalAboveWeekly: 1, TotalBelowWeekly: 1},
		StrategicSummary: models.StrategicSummary{
			LongTerm: []models.Asset{{Symbol: "BTC", Name: "Bitcoin", Rank: 1, PctFromEMA50: 12.5, AboveEMA50: true}},
			TradeNow: []models.Asset{},
			Avoid:    []models.Asset{{Symbol: "XRP", Rank: 4, PctFromEMA50: -22}},
		},
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.UnixMilli(1_700_000_000_000)}
	rc := NewResultCache(pcache.NewMemoryCache(), WithClock(clk.now))

	p := samplePayload()
	rc.Write(ctx, p)

	clk.t = clk.t.Add(DefaultTTL - time.Millisecond)
	got, ok := rc.ReadFresh(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)

	age, ok := rc.Age(ctx)
	require.True(t, ok)
	assert.Equal(t, DefaultTTL-time.Millisecond, age)
}

func TestResultCacheExpiresLazily(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.UnixMilli(1_700_000_000_000)}
	store := pcache.NewMemoryCache()
	rc := NewResultCache(store, WithClock(clk.now))

	rc.Write(ctx, samplePayload())
	assert.Equal(t, 1, store.Len())

	clk.t = clk.t.Add(DefaultTTL)
	_, ok := rc.ReadFresh(ctx)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())

	_, ok = rc.Age(ctx)
	assert.False(t, ok)
}

func TestResultCacheEntryShape(t *testing.T) {
	ctx := context.Background()
	store := pcache.NewMemoryCache()
	rc := NewResultCache(store, WithClock(func() time.Time { return time.UnixMilli(42) }))
	rc.Write(ctx, samplePayload())

	raw, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timestamp":42`)
	assert.Contains(t, string(raw), `"coins_to_evaluate_long_term"`)
}

func TestResultCacheClear(t *testing.T) {
	ctx := context.Background()
	rc := NewResultCache(pcache.NewMemoryCache())
	rc.Write(ctx, samplePayload())
	require.NoError(t, rc.Clear(ctx))
	_, ok := rc.ReadFresh(ctx)
	assert.False(t, ok)
}

func TestResultCacheSwallowsStorageFailures(t *testing.T) {
	ctx := context.Background()
	rc := NewResultCache(brokenStore{})

	assert.NotPanics(t, func() { rc.Write(ctx, samplePayload()) })
	_, ok := rc.ReadFresh(ctx)
	assert.False(t, ok)
}
