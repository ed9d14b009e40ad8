//go:build wireinject
// +build wireinject

package di

import (
	"EMAScan/pkg/config"
	"EMAScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideUpstream,

		// Infrastructure clients
		ProvideScannerClient,
		ProvideCacheStore,
		ProvideResultCache,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Sinks
		ProvideHistorySink,
		ProvideSinks,

		// Use cases
		ProvidePipeline,
		ProvidePoller,
		ProvideIngestor,
		ProvidePriceFeed,
		ProvideScheduler,

		// HTTP
		ProvideLimiter,
		ProvideLifetime,
		ProvideHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeClient wires the pieces the one-shot CLI commands need.
func InitializeClient(cfg *config.Config) (*Client, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideUpstream,
		ProvideScannerClient,
		ProvideCacheStore,
		ProvideResultCache,
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideHistorySink,
		ProvideSinks,
		ProvidePipeline,
		ProvidePoller,
		ProvideIngestor,
		wire.Struct(new(Client), "*"),
	)
	return nil, nil, nil
}
