package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8090, c.Server.Port)
	assert.Equal(t, "http://localhost:5001", c.Scanner.URL)
	assert.Equal(t, 2*time.Second, c.Scanner.PollInterval)
	assert.Equal(t, 5*time.Second, c.PriceFeed.ReconnectDelay)
	assert.Equal(t, time.Hour, c.Cache.TTL)
	assert.Equal(t, "crypto_scanner_results", c.Cache.Key)
	assert.Equal(t, "sqlite", c.Cache.Backend)
	assert.True(t, c.Metrics.Enabled)
	assert.False(t, c.Sinks.Kafka.Enabled)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9100
scanner:
  url: http://scanner.internal:5001
  poll_interval: 5s
cache:
  backend: memory
  ttl: 30m
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9100, c.Server.Port)
	assert.Equal(t, 5*time.Second, c.Scanner.PollInterval)
	assert.Equal(t, 30*time.Minute, c.Cache.TTL)
	assert.Equal(t, "127.0.0.1", c.Server.Host)
}

func TestValidationFailures(t *testing.T) {
	cases := map[string]string{
		"bad environment": "environment: moon\n",
		"bad backend":     "cache:\n  backend: memcached\n",
		"kafka brokers":   "sinks:\n  kafka:\n    enabled: true\n",
		"top_n range":     "scanner:\n  top_n: 500\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EMASCAN_SCANNER_URL", "http://10.0.0.5:5001")
	t.Setenv("EMASCAN_CACHE_TTL", "10m")
	t.Setenv("EMASCAN_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("EMASCAN_SCHEDULE_CRON", "@every 30m")

	c, err := LoadWithEnv(writeConfig(t, "server:\n  port: 9200\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:5001", c.Scanner.URL)
	assert.Equal(t, 10*time.Minute, c.Cache.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Sinks.Kafka.Brokers)
	assert.True(t, c.Schedule.Enabled)
	assert.Equal(t, 9200, c.Server.Port)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
