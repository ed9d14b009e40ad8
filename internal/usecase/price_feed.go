package usecase

import (
	"context"
	"sync"
	"time"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	"EMAScan/pkg/logger"
)

// DefaultReconnectDelay is the fixed wait before re-dialling the price feed.
const DefaultReconnectDelay = 5 * time.Second

// PriceFeed keeps the latest live price and 24h volume per symbol.
// It reconnects after every disconnect with a constant delay and no retry limit.
type PriceFeed struct {
	dialer  drepo.PriceDialer
	delay   time.Duration
	metrics drepo.Metrics
	log     *logger.Logger

	mu         sync.RWMutex
	prices     map[string]float64
	volumes    map[string]float64
	updatedAt  map[string]time.Time
	connected  bool
	reconnects int
}

type PriceFeedOption func(*PriceFeed)

func WithReconnectDelay(d time.Duration) PriceFeedOption {
	return func(f *PriceFeed) { f.delay = d }
}

// NewPriceFeed creates a disconnected feed.
func NewPriceFeed(dialer drepo.PriceDialer, metrics drepo.Metrics, log *logger.Logger, opts ...PriceFeedOption) *PriceFeed {
	f := &PriceFeed{
		dialer:    dialer,
		delay:     DefaultReconnectDelay,
		metrics:   metrics,
		log:       log,
		prices:    make(map[string]float64),
		volumes:   make(map[string]float64),
		updatedAt: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run keeps the subscription alive until ctx is cancelled. Cancelling ctx stops a
// pending reconnect and closes the active connection.
func (f *PriceFeed) Run(ctx context.Context) error {
	for {
		err := f.session(ctx)
		f.setConnected(false)
		if ctx.Err() != nil {
			return nil
		}
		f.metrics.RecordError(string(models.KindTransient))
		f.log.Warn("price feed disconnected", logger.Error(err), logger.Duration("retry_in_ms", f.delay))

		timer := time.NewTimer(f.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		f.mu.Lock()
		f.reconnects++
		f.mu.Unlock()
		f.metrics.RecordReconnect()
	}
}

func (f *PriceFeed) session(ctx context.Context) error {
	sub, err := f.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	stop := context.AfterFunc(ctx, func() { _ = sub.Close() })
	defer stop()

	f.setConnected(true)
	f.log.Info("price feed connected")

	for {
		tick, err := sub.Next()
		if err != nil {
			return err
		}
		f.apply(tick)
	}
}

func (f *PriceFeed) apply(t models.PriceTick) {
	f.mu.Lock()
	f.prices[t.Symbol] = t.Price
	if t.Volume24h != nil {
		f.volumes[t.Symbol] = *t.Volume24h
	}
	f.updatedAt[t.Symbol] = t.ReceivedAt
	f.mu.Unlock()
	f.metrics.RecordLastPrice(t.Symbol, t.Price)
}

func (f *PriceFeed) setConnected(c bool) {
	f.mu.Lock()
	f.connected = c
	f.mu.Unlock()
	f.metrics.SetFeedConnected(c)
}

// Connected reports whether a subscription is open.
func (f *PriceFeed) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

// Reconnects returns how many reconnect attempts were made.
func (f *PriceFeed) Reconnects() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.reconnects
}

// Price returns the latest price of symbol.
func (f *PriceFeed) Price(symbol string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.prices[symbol]
	return p, ok
}

// Volume returns the latest 24h volume of symbol.
func (f *PriceFeed) Volume(symbol string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.volumes[symbol]
	return v, ok
}

// LivePrice is the latest price state of one symbol.
type LivePrice struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume24h *float64  `json:"volume_24h,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot copies the price and volume maps.
func (f *PriceFeed) Snapshot() map[string]LivePrice {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]LivePrice, len(f.prices))
	for sym, p := range f.prices {
		lp := LivePrice{Symbol: sym, Price: p, UpdatedAt: f.updatedAt[sym]}
		if v, ok := f.volumes[sym]; ok {
			lp.Volume24h = &v
		}
		out[sym] = lp
	}
	return out
}
