package di

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcache "EMAScan/pkg/cache"
	"EMAScan/pkg/config"
	applogger "EMAScan/pkg/logger"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Cache.Backend = "memory"
	cfg.PriceFeed.Enabled = false
	return cfg
}

func TestProvideCacheStore(t *testing.T) {
	cfg := testConfig()
	store, cleanup, err := ProvideCacheStore(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &pcache.MemoryCache{}, store)

	cfg.Cache.Backend = "bogus"
	_, _, err = ProvideCacheStore(cfg)
	assert.ErrorContains(t, err, "unknown cache backend")

	cfg.Cache.Backend = "redis"
	cfg.Cache.Redis.Addr = "no-port"
	_, _, err = ProvideCacheStore(cfg)
	assert.ErrorContains(t, err, "redis addr")
}

func TestOptionalProvidersDisabled(t *testing.T) {
	cfg := testConfig()
	log := applogger.Nop()

	producer, closeProducer, err := ProvideKafkaProducer(cfg, ProvideRegistry(), log)
	require.NoError(t, err)
	closeProducer()
	assert.Nil(t, producer)

	client, cleanup, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, client)

	history, err := ProvideHistorySink(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, history)

	sinks, closeSinks := ProvideSinks(cfg, nil, nil, log)
	closeSinks()
	assert.Empty(t, sinks)
}

func kafkaConfig() *config.Config {
	cfg := testConfig()
	cfg.Sinks.Kafka.Enabled = true
	cfg.Sinks.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Sinks.Kafka.LogTopic = "emascan.logs"
	return cfg
}

func TestProvideKafkaProducerCleanup(t *testing.T) {
	log := applogger.Nop()
	producer, cleanup, err := ProvideKafkaProducer(kafkaConfig(), ProvideRegistry(), log)
	require.NoError(t, err)
	require.NotNil(t, producer)
	assert.True(t, log.Collecting())

	cleanup()
	assert.False(t, log.Collecting())
	assert.ErrorIs(t, producer.PublishMessage(t.Context(), "emascan.logs", "late"), io.ErrClosedPipe)

	sinks, closeSinks := ProvideSinks(kafkaConfig(), producer, nil, log)
	require.Len(t, sinks, 1)
	closeSinks()
}

func TestInitializeFailsAfterKafkaProducer(t *testing.T) {
	cfg := kafkaConfig()
	cfg.Sinks.ClickHouse.Enabled = true
	cfg.Sinks.ClickHouse.Host = ""

	app, cleanup, err := InitializeApp(cfg)
	assert.ErrorContains(t, err, "host is required")
	assert.Nil(t, app)
	assert.Nil(t, cleanup)

	c, cleanup, err := InitializeClient(cfg)
	assert.ErrorContains(t, err, "host is required")
	assert.Nil(t, c)
	assert.Nil(t, cleanup)
}

func TestProvideScheduler(t *testing.T) {
	cfg := testConfig()
	assert.Nil(t, ProvideScheduler(cfg, nil, applogger.Nop()))

	cfg.Schedule.Enabled = true
	assert.NotNil(t, ProvideScheduler(cfg, nil, applogger.Nop()))
}

func TestInitializeClient(t *testing.T) {
	c, cleanup, err := InitializeClient(testConfig())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, c.Scanner)
	assert.NotNil(t, c.Ingestor)
	assert.Nil(t, c.Pipeline.Current())
	_, ok := c.Cache.Age(t.Context())
	assert.False(t, ok)
}

func TestInitializeApp(t *testing.T) {
	app, cleanup, err := InitializeApp(testConfig())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, app)
}
