package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Env       string    `yaml:"env" env:"ENV" env-default:"local"`
	Storage   string    `yaml:"storage" env:"STORAGE" env-default:"postgres"`
	HTTP      HTTP      `yaml:"http"`
	Postgres  Postgres  `yaml:"postgres"`
	Redis     Redis     `yaml:"redis"`
	Kafka     Kafka     `yaml:"kafka"`
	Outbox    Outbox    `yaml:"outbox"`
	Auth      Auth      `yaml:"auth"`
	Pricing   Pricing   `yaml:"pricing"`
	Analytics Analytics `yaml:"analytics"`
	Logger    Logger    `yaml:"logger"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type HTTP struct {
	Addr           string        `yaml:"addr" env:"PET_SHOP_ADDR" env-default:":8080"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"5s"`
	RateLimit      int           `yaml:"rate_limit" env:"HTTP_RATE_LIMIT" env-default:"60"`
	RateWindow     time.Duration `yaml:"rate_window" env-default:"1m"`
	AllowOrigins   string        `yaml:"allow_origins" env:"HTTP_ALLOW_ORIGINS" env-default:"*"`
}

type Postgres struct {
	URL          string `yaml:"url" env:"DATABASE_URL"`
	MaxOpenConns int    `yaml:"max_open_conns" env-default:"10"`
	MaxIdleConns int    `yaml:"max_idle_conns" env-default:"2"`
	Migrate      bool   `yaml:"migrate" env:"DB_MIGRATE" env-default:"true"`
}

type Redis struct {
	Addr       string        `yaml:"addr" env:"REDIS_ADDR"`
	ProductTTL time.Duration `yaml:"product_ttl" env-default:"10m"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_ORDER_TOPIC" env-default:"order_events"`
}

type Outbox struct {
	Interval    time.Duration `yaml:"interval" env-default:"500ms"`
	BatchSize   int           `yaml:"batch_size" env-default:"50"`
	MaxAttempts int           `yaml:"max_attempts" env-default:"10"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

// Pricing configures the shipping and tax policy applied at checkout.
type Pricing struct {
	FlatShippingCents int64 `yaml:"flat_shipping_cents" env:"PRICING_FLAT_SHIPPING_CENTS" env-default:"0"`
	TaxRateBPS        int64 `yaml:"tax_rate_bps" env:"PRICING_TAX_RATE_BPS" env-default:"0"`
}

type Analytics struct {
	TimeZone string `yaml:"time_zone" env:"ANALYTICS_TIME_ZONE" env-default:"UTC"`
}

type Logger struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Telemetry struct {
	Enabled  bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_ENDPOINT" env-default:"localhost:4318"`
}

// Load reads the YAML file at path and applies environment overrides. An
// empty path reads the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("reading env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad loads the file named by CONFIG_PATH (default ./config/local.yaml),
// falling back to the environment alone when the file does not exist.
func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/local.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("config file %s not found, reading environment only", path)
		path = ""
	}

	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("error reading config: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Pricing.FlatShippingCents < 0 || c.Pricing.TaxRateBPS < 0 {
		return fmt.Errorf("pricing values must be non-negative")
	}
	if _, err := time.LoadLocation(c.Analytics.TimeZone); err != nil {
		return fmt.Errorf("analytics time zone: %w", err)
	}
	return nil
}

// Location returns the calendar used for analytics buckets.
func (a Analytics) Location() *time.Location {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
