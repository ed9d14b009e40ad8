package repository

import (
	"context"

	"EMAScan/internal/domain/models"
)

// ScanService is the remote analysis service consumed by the orchestration layer.
type ScanService interface {
	Status(ctx context.Context) (models.ScanJob, error)
	StartScan(ctx context.Context, req models.ScanRequest) error
	Latest(ctx context.Context) (*models.ResultPayload, error)
	Demo(ctx context.Context) (*models.ResultPayload, error)
	OpenStream(ctx context.Context) (EventStream, error)
	Health(ctx context.Context) error
}

// DatabaseReader exposes the read paths of the database-backed service variant.
type DatabaseReader interface {
	DatabaseStats(ctx context.Context) (models.DatabaseStats, error)
	StrategicSummary(ctx context.Context) (models.StrategicSummary, error)
	EMAAnalysis(ctx context.Context, tf models.Timeframe) (models.EMAAnalysis, error)
	CoinDetails(ctx context.Context, symbol string) (models.CoinDetails, error)
}

// EventStream is an open push-stream subscription. Next blocks until an event arrives.
type EventStream interface {
	Next() (models.StreamEvent, error)
	Close() error
}

// PriceDialer opens live price subscriptions.
type PriceDialer interface {
	Dial(ctx context.Context) (PriceSubscription, error)
}

// PriceSubscription is one open price feed connection. Next blocks until a tick arrives.
type PriceSubscription interface {
	Next() (models.PriceTick, error)
	Close() error
}

// SnapshotSink receives every dashboard produced by the pipeline.
type SnapshotSink interface {
	Publish(ctx context.Context, d *models.Dashboard) error
	Close() error
}

type Metrics interface {
	RecordStatusPoll(result string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordReconnect()
	SetFeedConnected(connected bool)
	RecordPipelineRun(source string, assets int)
	RecordBuckets(longTerm, tradeNow, avoid int)
}
