package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. EMASCAN_SCANNER_URL.
const EnvPrefix = "EMASCAN"

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production"`

	Server struct {
		Host            string        `yaml:"host" default:"127.0.0.1" validate:"required"`
		Port            int           `yaml:"port" default:"8090" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
		CORS            bool          `yaml:"cors" default:"true"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
	} `yaml:"metrics"`

	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout" validate:"required"`
	} `yaml:"logging"`

	Scanner struct {
		URL          string        `yaml:"url" default:"http://localhost:5001" validate:"url"`
		Timeout      time.Duration `yaml:"timeout" default:"30s"`
		PollInterval time.Duration `yaml:"poll_interval" default:"2s" validate:"gt=0"`
		SettleDelay  time.Duration `yaml:"settle_delay" default:"1s"`
		ScanTimeout  time.Duration `yaml:"scan_timeout" default:"30m"`
		TopN         int           `yaml:"top_n" default:"10" validate:"min=5,max=200"`
		Database     bool          `yaml:"database"` // load from the database-backed endpoints at startup
	} `yaml:"scanner"`

	PriceFeed struct {
		Enabled        bool          `yaml:"enabled" default:"true"`
		URL            string        `yaml:"url" default:"ws://localhost:5002" validate:"omitempty,url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s" validate:"gt=0"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"price_feed"`

	Cache struct {
		Backend       string        `yaml:"backend" default:"sqlite" validate:"oneof=memory sqlite redis layered"`
		TTL           time.Duration `yaml:"ttl" default:"1h" validate:"gt=0"`
		Key           string        `yaml:"key" default:"crypto_scanner_results" validate:"required"`
		SQLitePath    string        `yaml:"sqlite_path" default:"emascan-cache.db"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"64"`
		Redis         struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"emascan"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Schedule struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron" default:"@every 1h" validate:"required_if=Enabled true"`
		TopN    int    `yaml:"top_n" default:"10" validate:"min=5,max=200"`
	} `yaml:"schedule"`

	RateLimit struct {
		Burst     int     `yaml:"burst" default:"3" validate:"min=1"`
		PerSecond float64 `yaml:"per_second" default:"0.1" validate:"gt=0"`
	} `yaml:"rate_limit"`

	Sinks struct {
		Kafka struct {
			Enabled     bool     `yaml:"enabled"`
			Brokers     []string `yaml:"brokers" validate:"required_if=Enabled true"`
			Topic       string   `yaml:"topic" default:"emascan.snapshots"`
			LogTopic    string   `yaml:"log_topic"`
			Compression string   `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
			GroupID     string   `yaml:"group_id" default:"emascan-watch"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Enabled     bool          `yaml:"enabled"`
			Host        string        `yaml:"host" default:"localhost" validate:"required_if=Enabled true"`
			Port        int           `yaml:"port" default:"9000"`
			Database    string        `yaml:"database" default:"default"`
			User        string        `yaml:"user" default:"default"`
			Password    string        `yaml:"password"`
			Table       string        `yaml:"table" default:"alignment_history"`
			UseHTTP     bool          `yaml:"use_http"`
			AsyncInsert bool          `yaml:"async_insert" default:"true"`
			DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		} `yaml:"clickhouse"`
	} `yaml:"sinks"`
}

// envOverrides holds the environment variables that may override the file.
// Unset variables leave the pointer nil.
type envOverrides struct {
	Environment    *string        `envconfig:"ENVIRONMENT"`
	ServerHost     *string        `envconfig:"SERVER_HOST"`
	ServerPort     *int           `envconfig:"SERVER_PORT"`
	LogLevel       *string        `envconfig:"LOG_LEVEL"`
	LogFormat      *string        `envconfig:"LOG_FORMAT"`
	ScannerURL     *string        `envconfig:"SCANNER_URL"`
	PollInterval   *time.Duration `envconfig:"POLL_INTERVAL"`
	PriceFeedURL   *string        `envconfig:"PRICE_FEED_URL"`
	PriceFeed      *bool          `envconfig:"PRICE_FEED_ENABLED"`
	CacheBackend   *string        `envconfig:"CACHE_BACKEND"`
	CacheTTL       *time.Duration `envconfig:"CACHE_TTL"`
	RedisAddr      *string        `envconfig:"REDIS_ADDR"`
	RedisPassword  *string        `envconfig:"REDIS_PASSWORD"`
	ScheduleCron   *string        `envconfig:"SCHEDULE_CRON"`
	KafkaBrokers   []string       `envconfig:"KAFKA_BROKERS"`
	KafkaTopic     *string        `envconfig:"KAFKA_TOPIC"`
	ClickHouseHost *string        `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePass *string        `envconfig:"CLICKHOUSE_PASSWORD"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return c
}

// Load reads a YAML file on top of the defaults. An empty path uses defaults only.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then EMASCAN_* overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := read(path)
	if err != nil {
		return nil, err
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	env.apply(c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (e envOverrides) apply(c *Config) {
	set(&c.Environment, e.Environment)
	set(&c.Server.Host, e.ServerHost)
	set(&c.Server.Port, e.ServerPort)
	set(&c.Logging.Level, e.LogLevel)
	set(&c.Logging.Format, e.LogFormat)
	set(&c.Scanner.URL, e.ScannerURL)
	set(&c.Scanner.PollInterval, e.PollInterval)
	set(&c.PriceFeed.URL, e.PriceFeedURL)
	set(&c.PriceFeed.Enabled, e.PriceFeed)
	set(&c.Cache.Backend, e.CacheBackend)
	set(&c.Cache.TTL, e.CacheTTL)
	set(&c.Cache.Redis.Addr, e.RedisAddr)
	set(&c.Cache.Redis.Password, e.RedisPassword)
	set(&c.Sinks.Kafka.Topic, e.KafkaTopic)
	set(&c.Sinks.ClickHouse.Host, e.ClickHouseHost)
	set(&c.Sinks.ClickHouse.Password, e.ClickHousePass)
	if e.ScheduleCron != nil {
		c.Schedule.Cron = *e.ScheduleCron
		c.Schedule.Enabled = *e.ScheduleCron != ""
	}
	if len(e.KafkaBrokers) > 0 {
		c.Sinks.Kafka.Brokers = e.KafkaBrokers
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the configuration against its validate tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	return nil
}
