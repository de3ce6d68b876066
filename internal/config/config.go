// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	ShutdownTimeout     time.Duration
	MaxRequestBodyBytes int64

	// Storage. An empty DatabaseURL selects the in-memory store.
	DatabaseURL  string
	MaxConns     int32
	SeedDemoData bool

	// JWT settings.
	JWTPrivateKeyPath string // Ed25519 private key PEM file.
	JWTPublicKeyPath  string // Ed25519 public key PEM file.
	JWTExpiration     time.Duration

	// Admin bootstrap.
	AdminAPIKey string // API key for the initial "admin" account.

	// Rate limiting.
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	// Similar-school search. Empty QdrantURL keeps search in process.
	QdrantURL          string
	QdrantAPIKey       string
	QdrantCollection   string
	SearchSyncInterval time.Duration

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Scoring.
	ScoreWorkers int

	Log LogConfig
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json or text
	File       string // optional rotated log file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads configuration from environment variables with sensible defaults.
// Every malformed variable is reported, not just the first.
func Load() (Config, error) {
	var errs []error
	str := func(key, def string) string { return envStr(key, def) }
	num := func(key string, def int) int {
		v, err := envInt(key, def)
		errs = append(errs, err)
		return v
	}
	flt := func(key string, def float64) float64 {
		v, err := envFloat(key, def)
		errs = append(errs, err)
		return v
	}
	flag := func(key string, def bool) bool {
		v, err := envBool(key, def)
		errs = append(errs, err)
		return v
	}
	dur := func(key string, def time.Duration) time.Duration {
		v, err := envDuration(key, def)
		errs = append(errs, err)
		return v
	}

	cfg := Config{
		Port:                num("MANABI_PORT", 8080),
		ReadTimeout:         dur("MANABI_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        dur("MANABI_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout:     dur("MANABI_SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxRequestBodyBytes: int64(num("MANABI_MAX_REQUEST_BODY_BYTES", 1*1024*1024)),
		DatabaseURL:         str("DATABASE_URL", ""),
		MaxConns:            int32(num("MANABI_DB_MAX_CONNS", 10)), //nolint:gosec // bounded in Validate
		SeedDemoData:        flag("MANABI_SEED_DEMO_DATA", false),
		JWTPrivateKeyPath:   str("MANABI_JWT_PRIVATE_KEY", ""),
		JWTPublicKeyPath:    str("MANABI_JWT_PUBLIC_KEY", ""),
		JWTExpiration:       dur("MANABI_JWT_EXPIRATION", 24*time.Hour),
		AdminAPIKey:         str("MANABI_ADMIN_API_KEY", ""),
		RateLimitEnabled:    flag("MANABI_RATE_LIMIT_ENABLED", true),
		RateLimitRPS:        flt("MANABI_RATE_LIMIT_RPS", 20),
		RateLimitBurst:      num("MANABI_RATE_LIMIT_BURST", 40),
		QdrantURL:           str("QDRANT_URL", ""),
		QdrantAPIKey:        str("QDRANT_API_KEY", ""),
		QdrantCollection:    str("QDRANT_COLLECTION", "manabi_schools"),
		SearchSyncInterval:  dur("MANABI_SEARCH_SYNC_INTERVAL", 2*time.Second),
		OTELEndpoint:        str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        flag("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:         str("OTEL_SERVICE_NAME", "manabi"),
		ScoreWorkers:        num("MANABI_SCORE_WORKERS", 8),
		Log: LogConfig{
			Level:      str("MANABI_LOG_LEVEL", "info"),
			Format:     str("MANABI_LOG_FORMAT", "json"),
			File:       str("MANABI_LOG_FILE", ""),
			MaxSizeMB:  num("MANABI_LOG_MAX_SIZE_MB", 100),
			MaxBackups: num("MANABI_LOG_MAX_BACKUPS", 5),
			MaxAgeDays: num("MANABI_LOG_MAX_AGE_DAYS", 28),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("MANABI_PORT must be in 1..65535, got %d", c.Port))
	}
	if c.MaxRequestBodyBytes <= 0 {
		errs = append(errs, errors.New("MANABI_MAX_REQUEST_BODY_BYTES must be positive"))
	}
	if c.DatabaseURL != "" && (c.MaxConns <= 0 || c.MaxConns > 1000) {
		errs = append(errs, fmt.Errorf("MANABI_DB_MAX_CONNS must be in 1..1000, got %d", c.MaxConns))
	}
	if (c.JWTPrivateKeyPath == "") != (c.JWTPublicKeyPath == "") {
		errs = append(errs, errors.New("MANABI_JWT_PRIVATE_KEY and MANABI_JWT_PUBLIC_KEY must be set together"))
	}
	if c.JWTExpiration <= 0 {
		errs = append(errs, errors.New("MANABI_JWT_EXPIRATION must be positive"))
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("MANABI_RATE_LIMIT_RPS and MANABI_RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
	}
	if c.QdrantURL != "" && c.QdrantCollection == "" {
		errs = append(errs, errors.New("QDRANT_COLLECTION is required when QDRANT_URL is set"))
	}
	if c.SearchSyncInterval <= 0 {
		errs = append(errs, errors.New("MANABI_SEARCH_SYNC_INTERVAL must be positive"))
	}
	if c.ScoreWorkers <= 0 {
		errs = append(errs, errors.New("MANABI_SCORE_WORKERS must be positive"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("MANABI_LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid number", key, v)
	}
	return f, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
