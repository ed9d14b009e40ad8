package pricews

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	"EMAScan/pkg/logger"
)

const priceUpdate = "price_update"

// Dialer opens live price subscriptions over WebSocket.
type Dialer struct {
	url          string
	pingInterval time.Duration
	dialer       *websocket.Dialer
	log          *logger.Logger
	now          func() time.Time
}

type Option func(*Dialer)

// WithPingInterval sets how often a ping frame is sent; zero disables pings.
func WithPingInterval(d time.Duration) Option { return func(c *Dialer) { c.pingInterval = d } }

func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Dialer) { c.dialer.HandshakeTimeout = d }
}

func WithLogger(l *logger.Logger) Option { return func(c *Dialer) { c.log = l } }

func WithClock(now func() time.Time) Option { return func(c *Dialer) { c.now = now } }

// New creates a dialer for the price feed at url.
func New(url string, opts ...Option) *Dialer {
	d := &Dialer{
		url:          url,
		pingInterval: 30 * time.Second,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial establishes one connection.
func (d *Dialer) Dial(ctx context.Context) (drepo.PriceSubscription, error) {
	conn, _, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("price feed connect: %w", err)
	}
	s := &subscription{conn: conn, done: make(chan struct{}), now: d.now, log: d.log}
	if d.pingInterval > 0 {
		go s.pingLoop(d.pingInterval)
	}
	return s, nil
}

type priceMessage struct {
	Type      string   `json:"type"`
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	Volume24h *float64 `json:"volume_24h"`
}

type subscription struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
	now  func() time.Time
	log  *logger.Logger
}

// Next blocks until the next price tick. Frames of other types are skipped.
func (s *subscription) Next() (models.PriceTick, error) {
	for {
		_, b, err := s.conn.ReadMessage()
		if err != nil {
			return models.PriceTick{}, fmt.Errorf("price feed read: %w", err)
		}
		var m priceMessage
		if err := json.Unmarshal(b, &m); err != nil {
			s.log.Debug("price feed frame ignored", logger.Error(err))
			continue
		}
		if m.Type != priceUpdate || m.Symbol == "" {
			continue
		}
		return models.PriceTick{
			Symbol:     m.Symbol,
			Price:      m.Price,
			Volume24h:  m.Volume24h,
			ReceivedAt: s.now(),
		}, nil
	}
}

func (s *subscription) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(interval)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.log.Debug("price feed ping failed", logger.Error(err))
			}
		}
	}
}

// Close closes the connection and stops the ping loop. Safe to call repeatedly.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
