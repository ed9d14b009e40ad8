package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	"EMAScan/internal/handler/api"
	"EMAScan/internal/repository"
	svccache "EMAScan/internal/service/cache"
	svcmetrics "EMAScan/internal/service/metrics"
	"EMAScan/internal/service/pricews"
	"EMAScan/internal/service/ratelimit"
	"EMAScan/internal/service/scanner"
	"EMAScan/internal/services/strategy"
	"EMAScan/internal/services/trend"
	"EMAScan/internal/usecase"
	pcache "EMAScan/pkg/cache"
	pkgch "EMAScan/pkg/clickhouse"
	"EMAScan/pkg/config"
	xhttp "EMAScan/pkg/http"
	pkgkafka "EMAScan/pkg/kafka"
	applogger "EMAScan/pkg/logger"
	"EMAScan/pkg/metrics"
	"EMAScan/pkg/server"
)

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) drepo.Metrics {
	return metrics.New(reg)
}

func ProvideUpstream(reg *prometheus.Registry) *svcmetrics.Upstream {
	return svcmetrics.NewUpstream(reg)
}

// ProvideScannerClient creates the analysis service client.
func ProvideScannerClient(cfg *config.Config, log *applogger.Logger, up *svcmetrics.Upstream) *scanner.Client {
	return scanner.New(cfg.Scanner.URL,
		scanner.WithTimeout(cfg.Scanner.Timeout),
		scanner.WithLogger(log),
		scanner.WithUpstreamMetrics(up),
	)
}

// ProvideCacheStore opens the configured cache backend.
func ProvideCacheStore(cfg *config.Config) (pcache.Store, func(), error) {
	var (
		store pcache.Store
		err   error
	)
	switch cfg.Cache.Backend {
	case "memory":
		store = pcache.NewMemoryCache(pcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	case "sqlite":
		store, err = pcache.NewSQLiteCache(pcache.WithSQLitePath(cfg.Cache.SQLitePath))
	case "redis":
		store, err = newRedisStore(cfg)
	case "layered":
		var backing pcache.Store
		backing, err = newRedisStore(cfg)
		if err == nil {
			store = pcache.NewLayeredCache(backing, pcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize))
		}
	default:
		err = fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cache store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

func newRedisStore(cfg *config.Config) (pcache.Store, error) {
	r := cfg.Cache.Redis
	return pcache.NewRedisCache(
		pcache.WithRedisAddr(r.Addr),
		pcache.WithRedisAuth(r.Password, r.DB),
		pcache.WithRedisPrefix(r.Prefix),
	)
}

func ProvideResultCache(cfg *config.Config, store pcache.Store, log *applogger.Logger) *svccache.ResultCache {
	return svccache.NewResultCache(store,
		svccache.WithKey(cfg.Cache.Key),
		svccache.WithTTL(cfg.Cache.TTL),
		svccache.WithLogger(log),
	)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when the Kafka sink is disabled.
// The cleanup detaches the log collector before closing the producer it publishes to.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry, log *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	kc := cfg.Sinks.Kafka
	if !kc.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(kc.Brokers),
		pkgkafka.WithCompression(kc.Compression),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	if kc.LogTopic != "" {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          kc.LogTopic,
			Publisher:      producer,
		})
	}
	cleanup := func() {
		if kc.LogTopic != "" {
			log.RemoveCollector()
		}
		if err := producer.Close(); err != nil {
			log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideClickHouseClient connects to ClickHouse and creates the history table, or returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	cc := cfg.Sinks.ClickHouse
	if !cc.Enabled {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cc.Host),
		pkgch.WithPort(cc.Port),
		pkgch.WithDatabase(cc.Database),
		pkgch.WithCredentials(cc.User, cc.Password),
		pkgch.WithHTTP(cc.UseHTTP),
		pkgch.WithAsyncInsert(cc.AsyncInsert),
		pkgch.WithTimeouts(cc.DialTimeout, 10*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, repository.HistorySchema(cc.Table)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideHistorySink creates the ClickHouse alignment history sink, or nil without a client.
func ProvideHistorySink(cfg *config.Config, client *pkgch.Client) (*repository.ClickHouseSink, error) {
	if client == nil {
		return nil, nil
	}
	return repository.NewClickHouseSink(client.DB(), cfg.Sinks.ClickHouse.Table)
}

// ProvideSinks collects the enabled snapshot sinks.
func ProvideSinks(cfg *config.Config, producer *pkgkafka.Producer, history *repository.ClickHouseSink, log *applogger.Logger) ([]drepo.SnapshotSink, func()) {
	var sinks []drepo.SnapshotSink
	if producer != nil {
		sinks = append(sinks, repository.NewKafkaSink(producer, cfg.Sinks.Kafka.Topic))
	}
	if history != nil {
		sinks = append(sinks, history)
	}
	cleanup := func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				log.Warn("sink close error", applogger.Error(err))
			}
		}
	}
	return sinks, cleanup
}

// ProvidePipeline creates the result pipeline.
func ProvidePipeline(
	cfg *config.Config,
	client *scanner.Client,
	cache *svccache.ResultCache,
	sinks []drepo.SnapshotSink,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.ResultPipeline {
	opts := []usecase.PipelineOption{usecase.WithSinks(sinks...)}
	if cfg.Scanner.Database {
		opts = append(opts, usecase.WithDatabaseReader(client))
	}
	return usecase.NewResultPipeline(client, cache, trend.NewAssetClassifier(), strategy.NewBucketer(), m, log, opts...)
}

func ProvidePoller(cfg *config.Config, client *scanner.Client, pipeline *usecase.ResultPipeline, m drepo.Metrics, log *applogger.Logger) *usecase.StatusPoller {
	return usecase.NewStatusPoller(client, pipeline, m, log, usecase.WithPollInterval(cfg.Scanner.PollInterval))
}

// ProvideIngestor creates the streaming scan ingestor. A stream-loaded result marks the poller as loaded.
func ProvideIngestor(
	cfg *config.Config,
	client *scanner.Client,
	pipeline *usecase.ResultPipeline,
	poller *usecase.StatusPoller,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.StreamIngestor {
	return usecase.NewStreamIngestor(client, pipeline, m, log,
		usecase.WithSettleDelay(cfg.Scanner.SettleDelay),
		usecase.OnLoaded(poller.MarkLoaded),
	)
}

// ProvidePriceFeed creates the live price feed. It is built even when disabled so the API can report an empty feed.
func ProvidePriceFeed(cfg *config.Config, m drepo.Metrics, log *applogger.Logger) *usecase.PriceFeed {
	dialer := pricews.New(cfg.PriceFeed.URL,
		pricews.WithPingInterval(cfg.PriceFeed.PingInterval),
		pricews.WithLogger(log),
	)
	return usecase.NewPriceFeed(dialer, m, log, usecase.WithReconnectDelay(cfg.PriceFeed.ReconnectDelay))
}

// ProvideScheduler creates the cron scan scheduler, or nil when scheduling is disabled.
func ProvideScheduler(cfg *config.Config, ingestor *usecase.StreamIngestor, log *applogger.Logger) *usecase.Scheduler {
	if !cfg.Schedule.Enabled {
		return nil
	}
	req := models.ScanRequest{TopN: cfg.Schedule.TopN}.Clamped()
	return usecase.NewScheduler(cfg.Schedule.Cron, ingestor, req, log)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.PerSecond)
}

func ProvideLifetime() (*server.Lifetime, func()) {
	life := server.NewLifetime()
	return life, life.Cancel
}

// ProvideHandler creates the dashboard API handler.
func ProvideHandler(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.ResultPipeline,
	ingestor *usecase.StreamIngestor,
	poller *usecase.StatusPoller,
	feed *usecase.PriceFeed,
	cache *svccache.ResultCache,
	client *scanner.Client,
	history *repository.ClickHouseSink,
	limiter *ratelimit.Limiter,
	life *server.Lifetime,
) *api.DashboardHandler {
	opts := []api.HandlerOption{
		api.WithScanLimiter(limiter),
		api.WithBaseContext(life.Context()),
		api.WithScanTimeout(cfg.Scanner.ScanTimeout),
	}
	if cfg.Scanner.Database {
		opts = append(opts, api.WithCoinDetails(client))
	}
	if history != nil {
		opts = append(opts, api.WithHistory(history))
	}
	return api.NewDashboardHandler(log, pipeline, ingestor, poller, feed, cache, client, opts...)
}

// ProvideHTTPServer creates the Echo server for the dashboard API.
func ProvideHTTPServer(cfg *config.Config, h *api.DashboardHandler, log *applogger.Logger, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.CORSOrigins...),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
	}
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	opts = append(opts, xhttp.WithMetrics(path, reg))
	return xhttp.NewServer(h, log, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	life *server.Lifetime,
	pipeline *usecase.ResultPipeline,
	cache *svccache.ResultCache,
	poller *usecase.StatusPoller,
	feed *usecase.PriceFeed,
	scheduler *usecase.Scheduler,
	httpServer *xhttp.Server,
) *server.App {
	if !cfg.PriceFeed.Enabled || cfg.PriceFeed.URL == "" {
		feed = nil
	}
	return server.New(cfg, log, life, pipeline, cache, poller, feed, scheduler, httpServer)
}
