package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func noDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "API_PORT", "ARTIFACT_DIR", "MODEL_FILE", "ENCODERS_FILE", "NATS_SUBJECT", "CACHE_TTL",
		"BATCH_MAX_ROWS", "BREAKER_ENABLED", "BREAKER_OPEN_TIMEOUT", "POSTGRES_DSN", "NATS_URL", "API_RATE_LIMIT_RPS")

	cfg, err := Load(noDotenv(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.APIPort)
	}
	if cfg.ArtifactDir != "./artifacts" || cfg.ModelFile != "model.json" || cfg.EncodersFile != "encoders.yaml" {
		t.Fatalf("unexpected artifact defaults: %q %q %q", cfg.ArtifactDir, cfg.ModelFile, cfg.EncodersFile)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Fatalf("expected 24h cache ttl, got %s", cfg.CacheTTL)
	}
	if cfg.BatchMaxRows != 500 {
		t.Fatalf("expected batch max rows 500, got %d", cfg.BatchMaxRows)
	}
	if !cfg.BreakerEnabled || cfg.BreakerOpenTimeout != 30*time.Second {
		t.Fatalf("unexpected breaker defaults: %v %s", cfg.BreakerEnabled, cfg.BreakerOpenTimeout)
	}
	if cfg.HistoryEnabled() {
		t.Fatalf("history must be disabled without postgres or nats")
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("rate limiting must be off by default, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("BREAKER_MIN_REQUESTS", "4")
	t.Setenv("NATS_URL", "nats://nats:4222")

	cfg, err := Load(noDotenv(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("expected 90s cache ttl, got %s", cfg.CacheTTL)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.BreakerMinRequests != 4 {
		t.Fatalf("expected breaker min requests 4, got %d", cfg.BreakerMinRequests)
	}
	if !cfg.HistoryEnabled() {
		t.Fatalf("expected history enabled with nats")
	}
}

func TestLoadReadsDotenvWithoutOverridingEnvironment(t *testing.T) {
	clearEnv(t, "MODEL_FILE")
	t.Setenv("API_PORT", "9000")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("API_PORT=7000\nMODEL_FILE=forest-v2.json\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("MODEL_FILE") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "9000" {
		t.Fatalf("environment must win over .env, got %q", cfg.APIPort)
	}
	if cfg.ModelFile != "forest-v2.json" {
		t.Fatalf("expected model file from .env, got %q", cfg.ModelFile)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	if _, err := Load(noDotenv(t)); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsNonPositiveBatchSize(t *testing.T) {
	t.Setenv("BATCH_MAX_ROWS", "0")
	if _, err := Load(noDotenv(t)); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestLoadRejectsNegativeBackpressureWait(t *testing.T) {
	t.Setenv("API_BACKPRESSURE_WAIT", "-1s")
	if _, err := Load(noDotenv(t)); err == nil {
		t.Fatalf("expected error for negative backpressure wait")
	}

	t.Setenv("API_BACKPRESSURE_WAIT", "0s")
	cfg, err := Load(noDotenv(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBackpressureWait != 0 {
		t.Fatalf("expected zero wait, got %s", cfg.APIBackpressureWait)
	}
}
