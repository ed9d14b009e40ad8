package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EMAScan/internal/domain/models"
	"EMAScan/pkg/logger"
	"EMAScan/pkg/metrics"
)

func coinEvent(t *testing.T, symbol string, pct float64) models.StreamEvent {
	t.Helper()
	data, err := json.Marshal(models.CoinResult{Symbol: symbol, Weekly: &models.Asset{Symbol: symbol, PctFromEMA50: pct}})
	require.NoError(t, err)
	return models.StreamEvent{Type: models.EventCoinResult, Data: data}
}

type runResult struct {
	d   *models.Dashboard
	err error
}

func startRun(ctx context.Context, s *StreamIngestor, req models.ScanRequest) <-chan runResult {
	out := make(chan runResult, 1)
	go func() {
		d, err := s.Run(ctx, req)
		out <- runResult{d, err}
	}()
	return out
}

func waitRun(t *testing.T, ch <-chan runResult) runResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("streaming scan did not return")
		return runResult{}
	}
}

func TestIngestorCollectsPartialsAndLoadsAfterSettle(t *testing.T) {
	stream := newFakeStream()
	svc := &fakeService{stream: stream}
	loader := &countingLoader{}
	loaded := 0
	s := NewStreamIngestor(svc, loader, metrics.Nop{}, logger.Nop(),
		WithSettleDelay(20*time.Millisecond),
		OnLoaded(func() { loaded++ }),
	)

	stream.events <- coinEvent(t, "XYZ", 12)
	stream.events <- coinEvent(t, "ABC", -15)
	res := startRun(context.Background(), s, models.ScanRequest{TopN: 20, UseCache: true})

	require.Eventually(t, func() bool { return len(s.Partial()) == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Running())
	assert.Equal(t, "XYZ", s.Partial()[0].Symbol)

	stream.events <- models.StreamEvent{Type: models.EventComplete}
	close(stream.events)

	r := waitRun(t, res)
	require.NoError(t, r.err)
	assert.NotNil(t, r.d)
	assert.Equal(t, 1, loader.count())
	assert.Equal(t, 1, loaded)
	assert.Empty(t, s.Partial())
	assert.False(t, s.Running())
	assert.True(t, stream.isClosed())

	require.Len(t, svc.started, 1)
	assert.False(t, svc.started[0].UseCache)
	assert.Equal(t, 20, svc.started[0].TopN)
}

func TestIngestorErrorEvent(t *testing.T) {
	stream := newFakeStream()
	loader := &countingLoader{}
	s := NewStreamIngestor(&fakeService{stream: stream}, loader, metrics.Nop{}, logger.Nop())

	stream.events <- coinEvent(t, "XYZ", 12)
	stream.events <- models.StreamEvent{Type: models.EventError, Error: "rate limited by exchange"}

	_, err := s.Run(context.Background(), models.ScanRequest{})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindStream))
	assert.Contains(t, err.Error(), "rate limited by exchange")
	assert.Zero(t, loader.count())
	assert.Empty(t, s.Partial())
	assert.True(t, stream.isClosed())
}

func TestIngestorStartupFailures(t *testing.T) {
	s := NewStreamIngestor(&fakeService{startErr: errors.New("connection refused")}, &countingLoader{}, metrics.Nop{}, logger.Nop())
	_, err := s.Run(context.Background(), models.ScanRequest{})
	assert.True(t, models.IsKind(err, models.KindStartup))

	s = NewStreamIngestor(&fakeService{streamErr: errors.New("404")}, &countingLoader{}, metrics.Nop{}, logger.Nop())
	_, err = s.Run(context.Background(), models.ScanRequest{})
	assert.True(t, models.IsKind(err, models.KindStartup))

	var se *models.ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Failed to start scan. Make sure the API server is running.", se.UserMessage())
}

func TestIngestorStreamEndsBeforeCompletion(t *testing.T) {
	stream := newFakeStream()
	loader := &countingLoader{}
	s := NewStreamIngestor(&fakeService{stream: stream}, loader, metrics.Nop{}, logger.Nop())

	stream.events <- coinEvent(t, "XYZ", 12)
	close(stream.events)

	_, err := s.Run(context.Background(), models.ScanRequest{})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindStream))
	assert.Contains(t, err.Error(), "stream ended before completion")
	assert.Zero(t, loader.count())
}

func TestIngestorCancelClosesStream(t *testing.T) {
	stream := newFakeStream()
	s := NewStreamIngestor(&fakeService{stream: stream}, &countingLoader{}, metrics.Nop{}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	res := startRun(ctx, s, models.ScanRequest{})
	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)

	cancel()
	r := waitRun(t, res)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.True(t, stream.isClosed())
	assert.False(t, s.Running())
}

func TestIngestorRejectsConcurrentRun(t *testing.T) {
	stream := newFakeStream()
	s := NewStreamIngestor(&fakeService{stream: stream}, &countingLoader{}, metrics.Nop{}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := startRun(ctx, s, models.ScanRequest{})
	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)

	_, err := s.Run(context.Background(), models.ScanRequest{})
	assert.ErrorIs(t, err, ErrScanInProgress)

	cancel()
	waitRun(t, res)
}

func TestIngestorFinalLoadFailure(t *testing.T) {
	stream := newFakeStream()
	s := NewStreamIngestor(&fakeService{stream: stream}, &countingLoader{err: errors.New("500")}, metrics.Nop{}, logger.Nop(),
		WithSettleDelay(time.Millisecond))

	stream.events <- models.StreamEvent{Type: models.EventComplete}

	_, err := s.Run(context.Background(), models.ScanRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream final load")
}
