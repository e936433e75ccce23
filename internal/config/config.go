package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CARTCTL"

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Catalog CatalogConfig
	Metrics MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	LogLevel  string `envconfig:"CARTCTL_LOG_LEVEL" default:"warn"`
	LogFormat string `envconfig:"CARTCTL_LOG_FORMAT" default:"console" validate:"oneof=json console"`
	Locale    string `envconfig:"CARTCTL_LOCALE" default:"pt-BR"`
}

type StorageConfig struct {
	Backend  string        `envconfig:"CARTCTL_STORAGE_BACKEND" default:"file" validate:"oneof=file redis postgres"`
	Key      string        `envconfig:"CARTCTL_STORAGE_KEY" default:"@RocketShoes:cart" validate:"required"`
	FilePath string        `envconfig:"CARTCTL_STORAGE_FILE" default:".cartctl/cart.json" validate:"required_if=Backend file"`
	RedisURL string        `envconfig:"CARTCTL_REDIS_URL" validate:"required_if=Backend redis"`
	RedisTTL time.Duration `envconfig:"CARTCTL_REDIS_TTL" default:"0s"`
	DSN      string        `envconfig:"CARTCTL_POSTGRES_DSN" validate:"required_if=Backend postgres"`
}

type CatalogConfig struct {
	BaseURL         string        `envconfig:"CARTCTL_CATALOG_URL" default:"http://localhost:3333" validate:"required,url"`
	Timeout         time.Duration `envconfig:"CARTCTL_CATALOG_TIMEOUT" default:"5s"`
	Currency        string        `envconfig:"CARTCTL_CATALOG_CURRENCY" default:"BRL" validate:"len=3"`
	BreakerFailures uint32        `envconfig:"CARTCTL_CATALOG_BREAKER_FAILURES" default:"5"`
	BreakerOpenFor  time.Duration `envconfig:"CARTCTL_CATALOG_BREAKER_OPEN_FOR" default:"30s"`
}

type MetricsConfig struct {
	PushgatewayURL string `envconfig:"CARTCTL_PUSHGATEWAY_URL" validate:"omitempty,url"`
	Job            string `envconfig:"CARTCTL_PUSHGATEWAY_JOB" default:"cartctl"`
}
