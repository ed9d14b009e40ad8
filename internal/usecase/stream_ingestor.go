package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	"EMAScan/pkg/logger"
)

// DefaultSettleDelay lets trailing events arrive after the completion event.
const DefaultSettleDelay = time.Second

// ErrScanInProgress is returned when a streaming scan is already running.
var ErrScanInProgress = errors.New("streaming scan already in progress")

// StreamIngestor starts a scan, collects partial results from the push stream
// and loads the final result set when the stream completes.
type StreamIngestor struct {
	svc      drepo.ScanService
	loader   ResultLoader
	settle   time.Duration
	metrics  drepo.Metrics
	log      *logger.Logger
	onLoaded []func()

	mu      sync.RWMutex
	running bool
	partial []models.CoinResult
}

type IngestorOption func(*StreamIngestor)

func WithSettleDelay(d time.Duration) IngestorOption {
	return func(s *StreamIngestor) { s.settle = d }
}

// OnLoaded registers a callback run after every successful final load.
func OnLoaded(fn func()) IngestorOption {
	return func(s *StreamIngestor) { s.onLoaded = append(s.onLoaded, fn) }
}

// NewStreamIngestor creates an ingestor.
func NewStreamIngestor(svc drepo.ScanService, loader ResultLoader, metrics drepo.Metrics, log *logger.Logger, opts ...IngestorOption) *StreamIngestor {
	s := &StreamIngestor{
		svc:     svc,
		loader:  loader,
		settle:  DefaultSettleDelay,
		metrics: metrics,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Partial returns a copy of the partial results in arrival order.
func (s *StreamIngestor) Partial() []models.CoinResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CoinResult, len(s.partial))
	copy(out, s.partial)
	return out
}

// Running reports whether a streaming scan is in progress.
func (s *StreamIngestor) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

type streamItem struct {
	ev  models.StreamEvent
	err error
}

// Run performs one streaming scan. The stream is always streamed fresh (use_cache=false).
// A failure to start the scan or open the stream is a startup error; an error event or a
// stream that ends before completing is a stream error. The subscription is closed on every path.
func (s *StreamIngestor) Run(ctx context.Context, req models.ScanRequest) (*models.Dashboard, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}
	s.running = true
	s.partial = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.partial = nil
		s.mu.Unlock()
	}()

	req.UseCache = false
	if err := s.svc.StartScan(ctx, req); err != nil {
		return nil, s.fail(models.KindStartup, "stream.start", err)
	}

	stream, err := s.svc.OpenStream(ctx)
	if err != nil {
		return nil, s.fail(models.KindStartup, "stream.open", err)
	}
	defer stream.Close()

	done := make(chan struct{})
	defer close(done)
	events := make(chan streamItem)
	go func() {
		for {
			ev, err := stream.Next()
			select {
			case events <- streamItem{ev: ev, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var (
		settle   *time.Timer
		settleCh <-chan time.Time
	)
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-settleCh:
			_ = stream.Close()
			d, err := s.loader.LoadLatest(ctx, models.SourceStream)
			s.clearPartial()
			if err != nil {
				return nil, fmt.Errorf("stream final load: %w", err)
			}
			for _, fn := range s.onLoaded {
				fn()
			}
			return d, nil

		case it := <-events:
			if it.err != nil {
				if settle != nil {
					// trailing close after completion; keep waiting for the settle timer
					events = nil
					continue
				}
				if errors.Is(it.err, io.EOF) {
					it.err = errors.New("stream ended before completion")
				}
				return nil, s.fail(models.KindStream, "stream.read", it.err)
			}

			switch it.ev.Type {
			case models.EventCoinResult:
				s.appendPartial(it.ev.Data)
			case models.EventComplete:
				if settle == nil {
					settle = time.NewTimer(s.settle)
					settleCh = settle.C
				}
			case models.EventError:
				_ = stream.Close()
				msg := it.ev.Error
				if msg == "" {
					msg = "remote scan reported an error"
				}
				return nil, s.fail(models.KindStream, "stream.event", errors.New(msg))
			default:
				s.log.Debug("stream event ignored", logger.String("type", string(it.ev.Type)))
			}
		}
	}
}

func (s *StreamIngestor) appendPartial(data json.RawMessage) {
	var r models.CoinResult
	if err := json.Unmarshal(data, &r); err != nil {
		s.log.Warn("partial result ignored", logger.Error(err))
		return
	}
	s.mu.Lock()
	s.partial = append(s.partial, r)
	n := len(s.partial)
	s.mu.Unlock()
	s.log.Debug("partial result", logger.String("symbol", r.SymbolKey()), logger.Int("received", n))
}

func (s *StreamIngestor) clearPartial() {
	s.mu.Lock()
	s.partial = nil
	s.mu.Unlock()
}

func (s *StreamIngestor) fail(kind models.ErrorKind, op string, err error) error {
	s.clearPartial()
	s.metrics.RecordError(string(kind))
	se := models.NewScanError(kind, op, err)
	s.log.Error("streaming scan failed", logger.String("kind", string(kind)), logger.Error(se))
	return se
}
