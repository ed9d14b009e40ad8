package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream records latency and failures per scanner service endpoint.
type Upstream struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

// NewUpstream creates the collectors and registers them on reg when it is not nil.
func NewUpstream(reg prometheus.Registerer) *Upstream {
	u := &Upstream{
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "emascan",
				Subsystem: "upstream",
				Name:      "latency_seconds",
				Help:      "Latency of scanner service endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "emascan",
				Subsystem: "upstream",
				Name:      "errors_total",
				Help:      "Errors by scanner service endpoint",
			},
			[]string{"endpoint"},
		),
	}
	if reg != nil {
		if existing, ok := register(reg, u.latency).(*prometheus.HistogramVec); ok {
			u.latency = existing
		}
		if existing, ok := register(reg, u.errors).(*prometheus.CounterVec); ok {
			u.errors = existing
		}
	}
	return u
}

// register returns the collector that ends up registered on reg.
func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// Observe records one call that started at start.
func (u *Upstream) Observe(endpoint string, start time.Time, err error) {
	if u == nil {
		return
	}
	u.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		u.errors.WithLabelValues(endpoint).Inc()
	}
}
