package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	statusPolls   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	reconnects    prometheus.Counter
	feedConnected prometheus.Gauge
	pipelineRuns  *prometheus.CounterVec
	assets        prometheus.Gauge
	buckets       *prometheus.GaugeVec
}

// New creates a recorder registered on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		statusPolls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emascan_status_polls_total",
				Help: "Job status polls by outcome",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emascan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"kind"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "emascan_last_price",
				Help: "Last live price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emascan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		reconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "emascan_price_feed_reconnects_total",
			Help: "Reconnect attempts of the live price feed",
		}),
		feedConnected: f.NewGauge(prometheus.GaugeOpts{
			Name: "emascan_price_feed_connected",
			Help: "1 while the live price feed is connected",
		}),
		pipelineRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emascan_pipeline_runs_total",
				Help: "Result sets processed by source",
			},
			[]string{"source"},
		),
		assets: f.NewGauge(prometheus.GaugeOpts{
			Name: "emascan_assets",
			Help: "Classified assets in the current result set",
		}),
		buckets: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "emascan_bucket_assets",
				Help: "Assets per strategic bucket",
			},
			[]string{"bucket"},
		),
	}
}

func (r *Recorder) RecordStatusPoll(result string) {
	r.statusPolls.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordReconnect() {
	r.reconnects.Inc()
}

func (r *Recorder) SetFeedConnected(connected bool) {
	if connected {
		r.feedConnected.Set(1)
		return
	}
	r.feedConnected.Set(0)
}

func (r *Recorder) RecordPipelineRun(source string, assets int) {
	r.pipelineRuns.WithLabelValues(source).Inc()
	r.assets.Set(float64(assets))
}

func (r *Recorder) RecordBuckets(longTerm, tradeNow, avoid int) {
	r.buckets.WithLabelValues("long_term").Set(float64(longTerm))
	r.buckets.WithLabelValues("trade_now").Set(float64(tradeNow))
	r.buckets.WithLabelValues("avoid").Set(float64(avoid))
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordStatusPoll(string)         {}
func (Nop) RecordError(string)              {}
func (Nop) RecordLastPrice(string, float64) {}
func (Nop) RecordLatency(string, float64)   {}
func (Nop) RecordReconnect()                {}
func (Nop) SetFeedConnected(bool)           {}
func (Nop) RecordPipelineRun(string, int)   {}
func (Nop) RecordBuckets(int, int, int)     {}
