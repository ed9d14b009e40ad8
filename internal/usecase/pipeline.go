package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	dservice "EMAScan/internal/domain/service"
	"EMAScan/internal/services/strategy"
	"EMAScan/internal/services/trend"
	"EMAScan/pkg/logger"
)

// ResultStore is the single-slot cache of the last complete payload.
type ResultStore interface {
	Write(ctx context.Context, payload *models.ResultPayload)
	ReadFresh(ctx context.Context) (*models.ResultPayload, bool)
}

// ResultLoader fetches the latest complete result set and runs it through the pipeline.
type ResultLoader interface {
	LoadLatest(ctx context.Context, kind models.SourceKind) (*models.Dashboard, error)
}

// ResultSource is a raw payload tagged with where it came from.
type ResultSource struct {
	Kind    models.SourceKind
	Payload *models.ResultPayload
}

// PollResult, StreamResult, DemoResult and CachedResult build tagged sources.
func PollResult(p *models.ResultPayload) ResultSource   { return ResultSource{models.SourcePoll, p} }
func StreamResult(p *models.ResultPayload) ResultSource { return ResultSource{models.SourceStream, p} }
func DemoResult(p *models.ResultPayload) ResultSource   { return ResultSource{models.SourceDemo, p} }
func CachedResult(p *models.ResultPayload) ResultSource { return ResultSource{models.SourceCache, p} }

// cacheable reports whether a source is a fresh full load that must be written to the cache.
func (s ResultSource) cacheable() bool {
	return s.Kind != models.SourceCache
}

// ResultPipeline turns raw payloads into dashboards: stablecoin filter, classification,
// ranking, bucketing, caching and sink fan-out.
type ResultPipeline struct {
	svc        drepo.ScanService
	db         drepo.DatabaseReader
	cache      ResultStore
	classifier dservice.Classifier
	bucketer   dservice.Bucketer
	sinks      []drepo.SnapshotSink
	metrics    drepo.Metrics
	log        *logger.Logger
	now        func() time.Time
	newID      func() string

	mu      sync.RWMutex
	current *models.Dashboard
}

type PipelineOption func(*ResultPipeline)

func WithDatabaseReader(db drepo.DatabaseReader) PipelineOption {
	return func(p *ResultPipeline) { p.db = db }
}

func WithSinks(sinks ...drepo.SnapshotSink) PipelineOption {
	return func(p *ResultPipeline) { p.sinks = append(p.sinks, sinks...) }
}

func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *ResultPipeline) { p.now = now }
}

func WithRunIDs(newID func() string) PipelineOption {
	return func(p *ResultPipeline) { p.newID = newID }
}

// NewResultPipeline wires the pipeline stages.
func NewResultPipeline(
	svc drepo.ScanService,
	cache ResultStore,
	classifier dservice.Classifier,
	bucketer dservice.Bucketer,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...PipelineOption,
) *ResultPipeline {
	p := &ResultPipeline{
		svc:        svc,
		cache:      cache,
		classifier: classifier,
		bucketer:   bucketer,
		metrics:    metrics,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the latest dashboard, or nil before the first load.
func (p *ResultPipeline) Current() *models.Dashboard {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Ingest runs one payload through every stage and makes it the current dashboard.
func (p *ResultPipeline) Ingest(ctx context.Context, src ResultSource) (*models.Dashboard, error) {
	if src.Payload == nil {
		return nil, fmt.Errorf("ingest %s: %w", src.Kind, models.ErrNoResults)
	}
	start := time.Now()

	results := src.Payload.Results
	if len(results) == 0 {
		results = resultsFromSummary(src.Payload.StrategicSummary)
	}
	results = strategy.FilterResults(results)

	assets := p.classifier.Classify(results)
	trend.Rank(assets)
	buckets := p.bucketer.Bucket(assets)

	d := models.NewDashboard(p.newID(), src.Kind, p.now(), summarize(src.Payload.Summary, assets), assets, buckets)

	if src.cacheable() {
		p.cache.Write(ctx, src.Payload)
	}

	p.mu.Lock()
	p.current = d
	p.mu.Unlock()

	p.metrics.RecordPipelineRun(string(src.Kind), len(assets))
	p.metrics.RecordBuckets(len(buckets.LongTerm), len(buckets.TradeNow), len(buckets.Avoid))
	p.metrics.RecordLatency("pipeline", time.Since(start).Seconds())
	p.log.Info("results loaded",
		logger.String("run_id", d.RunID),
		logger.String("source", string(src.Kind)),
		logger.Int("assets", len(assets)),
		logger.Int("long_term", len(buckets.LongTerm)),
		logger.Int("trade_now", len(buckets.TradeNow)),
		logger.Int("avoid", len(buckets.Avoid)),
	)

	p.publish(ctx, d)
	return d, nil
}

func (p *ResultPipeline) publish(ctx context.Context, d *models.Dashboard) {
	for _, s := range p.sinks {
		if err := s.Publish(ctx, d); err != nil {
			p.metrics.RecordError("sink")
			p.log.Warn("snapshot sink failed", logger.String("run_id", d.RunID), logger.Error(err))
		}
	}
}

// LoadLatest fetches /api/results/latest and ingests it under kind.
func (p *ResultPipeline) LoadLatest(ctx context.Context, kind models.SourceKind) (*models.Dashboard, error) {
	payload, err := p.svc.Latest(ctx)
	if err != nil {
		p.metrics.RecordError("load_latest")
		return nil, fmt.Errorf("load latest: %w", err)
	}
	return p.Ingest(ctx, ResultSource{Kind: kind, Payload: payload})
}

// LoadDemo fetches the demo payload; it bypasses the job lifecycle entirely.
func (p *ResultPipeline) LoadDemo(ctx context.Context) (*models.Dashboard, error) {
	payload, err := p.svc.Demo(ctx)
	if err != nil {
		p.metrics.RecordError("load_demo")
		return nil, fmt.Errorf("load demo: %w", err)
	}
	return p.Ingest(ctx, DemoResult(payload))
}

// RestoreFromCache seeds the dashboard from a fresh cache entry, if any.
func (p *ResultPipeline) RestoreFromCache(ctx context.Context) (*models.Dashboard, bool) {
	payload, ok := p.cache.ReadFresh(ctx)
	if !ok {
		return nil, false
	}
	d, err := p.Ingest(ctx, CachedResult(payload))
	if err != nil {
		return nil, false
	}
	return d, true
}

// LoadFromDatabase assembles a payload from the database-backed read paths.
func (p *ResultPipeline) LoadFromDatabase(ctx context.Context) (*models.Dashboard, error) {
	if p.db == nil {
		return nil, errors.New("load from database: no database reader configured")
	}

	ss, err := p.db.StrategicSummary(ctx)
	if err != nil {
		p.metrics.RecordError("load_database")
		return nil, fmt.Errorf("load from database: %w", err)
	}

	results := resultsFromSummary(ss)
	for _, tf := range models.Timeframes() {
		analysis, err := p.db.EMAAnalysis(ctx, tf)
		if err != nil {
			p.log.Warn("ema analysis unavailable", logger.String("timeframe", string(tf)), logger.Error(err))
			continue
		}
		results = mergeAnalysis(results, tf, analysis.Coins)
	}

	summary := models.Summary{}
	if stats, err := p.db.DatabaseStats(ctx); err == nil {
		summary.TotalScanned = stats.TotalCoins
		summary.Timestamp = stats.LastUpdated
	} else {
		p.log.Warn("database stats unavailable", logger.Error(err))
	}

	return p.Ingest(ctx, ResultSource{
		Kind:    models.SourceDatabase,
		Payload: &models.ResultPayload{Summary: summary, StrategicSummary: ss, Results: results},
	})
}

// summarize fills counters the payload left empty from the classified assets.
func summarize(s models.Summary, assets []models.ClassifiedAsset) models.Summary {
	if s.TotalScanned == 0 {
		s.TotalScanned = len(assets)
	}
	if s.Above() == 0 && s.Below() == 0 {
		for _, a := range assets {
			if a.AboveEMA50 {
				s.TotalAbove++
			} else {
				s.TotalBelow++
			}
		}
	}
	return s
}
