// Package config defines the service configuration. It is loaded once at
// startup and immutable thereafter, following 12-Factor principles: values
// come from the OS environment, with a .env file as a development fallback.
// Any invalid value fails startup immediately.
package config

import (
	"time"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// StoreBackend selects where the trained model slot is persisted.
type StoreBackend string

const (
	StorePostgres StoreBackend = "postgres"
	StoreSQLite   StoreBackend = "sqlite"
	StoreMemory   StoreBackend = "memory"
)

// Config is the top-level configuration struct. Sub-components receive only
// the subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"sentinela-core"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server    ServerConfig
	Store     StoreConfig
	Reference ReferenceConfig
	Feed      FeedConfig
	Pipeline  PipelineConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	ReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout       time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout    time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// StoreConfig selects and parameterizes the model-slot backend.
type StoreConfig struct {
	Backend StoreBackend `envconfig:"MODEL_STORE_BACKEND" default:"memory" validate:"oneof=postgres sqlite memory"`

	// Postgres settings, required when Backend is "postgres".
	DatabaseURL    types.SecretString `envconfig:"DATABASE_URL" validate:"required_if=Backend postgres"`
	MaxConns       int                `envconfig:"DB_MAX_CONNS" default:"4"`
	AcquireTimeout time.Duration      `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`

	// SQLite settings, required when Backend is "sqlite".
	SQLitePath string `envconfig:"MODEL_STORE_SQLITE_PATH" default:"sentinela.db"`
}

// ReferenceConfig holds the paths of the geographic reference data. The
// combos CSV is watched for changes and hot-reloaded.
type ReferenceConfig struct {
	CombosCSVPath     string `envconfig:"COMBOS_CSV_PATH" validate:"required"`
	DistrictsYAMLPath string `envconfig:"DISTRICTS_YAML_PATH"`
	WatchReference    bool   `envconfig:"WATCH_REFERENCE" default:"true"`
}

// FeedConfig holds the upstream article-feed client settings. An empty
// BaseURL disables the feed; the service then only accepts pushed batches.
type FeedConfig struct {
	BaseURL string        `envconfig:"FEED_BASE_URL" validate:"omitempty,url"`
	Timeout time.Duration `envconfig:"FEED_TIMEOUT" default:"20s"`
}

// PipelineConfig holds default pipeline parameters applied when a session
// config omits them.
type PipelineConfig struct {
	HorizonDays   int     `envconfig:"PIPELINE_HORIZON_DAYS" default:"7" validate:"min=1,max=365"`
	Granularity   string  `envconfig:"PIPELINE_GRANULARITY" default:"W" validate:"oneof=D W M"`
	MinRelevance  float64 `envconfig:"PIPELINE_MIN_RELEVANCE" default:"0.1" validate:"min=0,max=1"`
	EstimatorSeed int64   `envconfig:"PIPELINE_ESTIMATOR_SEED" default:"42"`
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure parsing environment variable values into
	// their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
