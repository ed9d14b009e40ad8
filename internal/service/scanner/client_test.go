package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EMAScan/internal/domain/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"running":true,"progress":3,"total":10,"current_coin":"ETH","status_message":"scanning"}`)
	})
	mux.HandleFunc("/api/scan", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"status":"started"}`)
	})
	mux.HandleFunc("/api/results/latest", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"summary":{"total_scanned":2,"total_above_weekly":1},
			"strategic_summary":{"coins_to_evaluate_long_term":[{"symbol":"BTC","pct_from_ema50":4.2}],
			"coins_to_trade_now_short_term":[],"coins_to_avoid":[]}}`)
	})
	mux.HandleFunc("/api/strategic-summary", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"strategic_summary":{"coins_to_avoid":[{"symbol":"XRP","pct_from_ema50":-30}]}}`)
	})
	mux.HandleFunc("/api/ema-analysis/all", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"coins":[{"symbol":"BTC","pct_from_ema50":1}],"tf":%q}`, r.URL.Query().Get("timeframe"))
	})
	mux.HandleFunc("/api/coins/SOL/details", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"coin_info":{"symbol":"SOL","name":"Solana","market_cap_rank":5},
			"price_range":{"all_time_high":260,"all_time_low":null},
			"trading_confidence":{"level":"HIGH","color":"green","factors":["long history"]}}`)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientStatusAndLatest(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	job, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, job.Running)
	require.NotNil(t, job.CurrentItem)
	assert.Equal(t, "ETH", *job.CurrentItem)

	p, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Summary.TotalScanned)
	require.Len(t, p.StrategicSummary.LongTerm, 1)
	assert.Equal(t, 4.2, p.StrategicSummary.LongTerm[0].PctFromEMA50)
}

func TestClientStartScanClampsRequest(t *testing.T) {
	var topN string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ScanRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		topN = fmt.Sprint(req.TopN)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).StartScan(context.Background(), models.ScanRequest{TopN: 1000}))
	assert.Equal(t, "200", topN)
}

func TestClientHealthUnreachable(t *testing.T) {
	srv := newTestServer(t)
	err := New(srv.URL).Health(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindUnreachable))
}

func TestClientDatabaseReads(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	ss, err := c.StrategicSummary(ctx)
	require.NoError(t, err)
	require.Len(t, ss.Avoid, 1)
	assert.Equal(t, "XRP", ss.Avoid[0].Symbol)

	a, err := c.EMAAnalysis(ctx, models.TF1d)
	require.NoError(t, err)
	assert.Equal(t, "1d", a.Timeframe)
	assert.Len(t, a.Coins, 1)

	d, err := c.CoinDetails(ctx, "sol")
	require.NoError(t, err)
	assert.Equal(t, "Solana", d.CoinInfo.Name)
	require.NotNil(t, d.PriceRange.AllTimeHigh)
	assert.Nil(t, d.PriceRange.AllTimeLow)
	assert.Equal(t, "HIGH", d.TradingConfidence.Level)
}

func TestClientOpenStreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).OpenStream(context.Background())
	assert.Error(t, err)
}

func TestClientOpenStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"coin_result\",\"data\":{\"symbol\":\"BTC\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"complete\"}\n\n")
	}))
	defer srv.Close()

	s, err := New(srv.URL).OpenStream(context.Background())
	require.NoError(t, err)
	defer s.Close()

	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, models.EventCoinResult, ev.Type)

	ev, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, models.EventComplete, ev.Type)

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestClientOpenStreamDoesNotReconnect(t *testing.T) {
	var opens atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		opens.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "retry: 10\nid: 7\n")
		fmt.Fprint(w, "data: {\"type\":\"coin_result\",\"data\":{\"symbol\":\"BTC\"}}\n\n")
	}))
	defer srv.Close()

	s, err := New(srv.URL).OpenStream(context.Background())
	require.NoError(t, err)

	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, models.EventCoinResult, ev.Type)
	assert.JSONEq(t, `{"symbol":"BTC"}`, string(ev.Data))

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), opens.Load())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
