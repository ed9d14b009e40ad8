package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	svccache "EMAScan/internal/service/cache"
	"EMAScan/internal/services/strategy"
	"EMAScan/internal/services/trend"
	pcache "EMAScan/pkg/cache"
	"EMAScan/pkg/logger"
	"EMAScan/pkg/metrics"
)

func pct(v float64) *float64 { return &v }

func samplePayload() *models.ResultPayload {
	return &models.ResultPayload{
		Summary: models.Summary{TotalScanned: 4, TotalAboveWeekly: 2, TotalBelowWeekly: 2},
		Results: []models.CoinResult{
			{Symbol: "XYZ", Weekly: &models.Asset{Symbol: "XYZ", Rank: 3, PctFromEMA50: 12, AboveEMA50: true}},
			{Symbol: "ABC", Weekly: &models.Asset{Symbol: "ABC", Rank: 2, PctFromEMA50: -15}},
			{Symbol: "DEF", Weekly: &models.Asset{Symbol: "DEF", Rank: 1, PctFromEMA50: -30}, FourHour: &models.Asset{Symbol: "DEF", PctFromEMA50: 3}},
			{Symbol: "USDT", Weekly: &models.Asset{Symbol: "USDT", PctFromEMA50: 0.01, AboveEMA50: true}},
		},
	}
}

// fakeService is a scripted ScanService.
type fakeService struct {
	mu sync.Mutex

	statuses  []models.ScanJob
	statusErr error
	polls     int

	latest     *models.ResultPayload
	latestErr  error
	latestHits int

	demo *models.ResultPayload

	startErr  error
	started   []models.ScanRequest
	stream    *fakeStream
	streamErr error
}

func (f *fakeService) Status(context.Context) (models.ScanJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.statusErr != nil {
		return models.ScanJob{}, f.statusErr
	}
	if len(f.statuses) == 0 {
		return models.ScanJob{}, nil
	}
	job := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return job, nil
}

func (f *fakeService) StartScan(_ context.Context, req models.ScanRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, req)
	return f.startErr
}

func (f *fakeService) Latest(context.Context) (*models.ResultPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestHits++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latest, nil
}

func (f *fakeService) Demo(context.Context) (*models.ResultPayload, error) {
	if f.demo == nil {
		return nil, errors.New("demo unavailable")
	}
	return f.demo, nil
}

func (f *fakeService) OpenStream(context.Context) (drepo.EventStream, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

func (f *fakeService) Health(context.Context) error { return nil }

func (f *fakeService) latestCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latestHits
}

// fakeStream delivers events pushed on a channel; Close unblocks Next with io.EOF.
type fakeStream struct {
	events chan models.StreamEvent
	closed chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan models.StreamEvent, 16), closed: make(chan struct{})}
}

func (s *fakeStream) Next() (models.StreamEvent, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return models.StreamEvent{}, io.EOF
		}
		return ev, nil
	case <-s.closed:
		return models.StreamEvent{}, errors.New("use of closed stream")
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func newPipeline(svc drepo.ScanService, opts ...PipelineOption) (*ResultPipeline, *svccache.ResultCache) {
	rc := svccache.NewResultCache(pcache.NewMemoryCache())
	p := NewResultPipeline(svc, rc, trend.NewAssetClassifier(), strategy.NewBucketer(), metrics.Nop{}, logger.Nop(), opts...)
	return p, rc
}

// countingLoader records LoadLatest calls.
type countingLoader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *countingLoader) LoadLatest(context.Context, models.SourceKind) (*models.Dashboard, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return &models.Dashboard{}, nil
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// fakeDialer hands out scripted subscriptions and counts dials.
type fakeDialer struct {
	mu    sync.Mutex
	dials []time.Time
	subs  chan *fakeSub
	err   error
}

func (d *fakeDialer) Dial(context.Context) (drepo.PriceSubscription, error) {
	d.mu.Lock()
	d.dials = append(d.dials, time.Now())
	err := d.err
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	select {
	case s := <-d.subs:
		return s, nil
	default:
		return nil, errors.New("no subscription scripted")
	}
}

func (d *fakeDialer) dialTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.dials...)
}

type fakeSub struct {
	ticks  chan models.PriceTick
	closed chan struct{}
	once   sync.Once
}

func newFakeSub() *fakeSub {
	return &fakeSub{ticks: make(chan models.PriceTick, 8), closed: make(chan struct{})}
}

func (s *fakeSub) Next() (models.PriceTick, error) {
	select {
	case t, ok := <-s.ticks:
		if !ok {
			return models.PriceTick{}, io.EOF
		}
		return t, nil
	case <-s.closed:
		return models.PriceTick{}, errors.New("closed")
	}
}

func (s *fakeSub) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}
