package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string `env:"API_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	ArtifactDir  string `env:"ARTIFACT_DIR" envDefault:"./artifacts"`
	ModelFile    string `env:"MODEL_FILE" envDefault:"model.json"`
	EncodersFile string `env:"ENCODERS_FILE" envDefault:"encoders.yaml"`
	// CatalogPath overrides the embedded attribute catalog.
	CatalogPath string `env:"CATALOG_PATH"`

	// Empty DSN/URL/address disables the matching backend.
	PostgresDSN string `env:"POSTGRES_DSN"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"predictions.recorded"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"24h"`

	// APIRateLimitRPS of 0 disables rate limiting.
	APIRateLimitRPS   float64 `env:"API_RATE_LIMIT_RPS" envDefault:"0"`
	APIRateLimitBurst int     `env:"API_RATE_LIMIT_BURST" envDefault:"20"`
	// APIMaxInFlight of 0 disables the concurrency gate. A zero
	// APIBackpressureWait rejects immediately when the gate is full.
	APIMaxInFlight      int           `env:"API_MAX_IN_FLIGHT" envDefault:"0"`
	APIBackpressureWait time.Duration `env:"API_BACKPRESSURE_WAIT" envDefault:"100ms"`

	BatchMaxRows int `env:"BATCH_MAX_ROWS" envDefault:"500"`

	BreakerEnabled          bool          `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerMinRequests      uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"10"`
	BreakerFailureRatio     float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerOpenTimeout      time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
	BreakerHalfOpenMaxCalls uint32        `env:"BREAKER_HALF_OPEN_MAX_CALLS" envDefault:"2"`

	WorkerMetricsPort string `env:"WORKER_METRICS_PORT" envDefault:"9090"`
}

// Load reads an optional .env file, then the process environment. Variables
// already set in the environment win over the file.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, path := range dotenvFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BatchMaxRows <= 0 {
		return Config{}, fmt.Errorf("BATCH_MAX_ROWS must be positive, got %d", cfg.BatchMaxRows)
	}
	if cfg.APIRateLimitRPS < 0 {
		return Config{}, fmt.Errorf("API_RATE_LIMIT_RPS must not be negative, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIBackpressureWait < 0 {
		return Config{}, fmt.Errorf("API_BACKPRESSURE_WAIT must not be negative, got %s", cfg.APIBackpressureWait)
	}
	return cfg, nil
}

func (c Config) HistoryEnabled() bool {
	return c.NATSURL != "" || c.PostgresDSN != ""
}
