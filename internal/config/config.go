package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider exposes read-only access to the application configuration.
// Components depend on this interface instead of the concrete Config so tests
// can hand them a stub.
type Provider interface {
	GetAppAddr() string
	GetDatabaseURL() string
	GetDBUser() string
	GetDBPass() string
	GetDBNs() string
	GetDBDb() string
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration
	GetLogFormat() string
	GetLogLevel() string
	GetCORSAllowOrigins() []string
	GetRateLimit() float64
	GetMetricsEnabled() bool
	GetShutdownTimeout() time.Duration
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr          string
	DatabaseURL      string
	DBUser           string
	DBPass           string
	DBNs             string
	DBDb             string
	DBQueryTimeout   time.Duration
	DBExecuteTimeout time.Duration
	LogFormat        string
	LogLevel         string
	CORSAllowOrigins []string
	RateLimit        float64
	MetricsEnabled   bool
	ShutdownTimeout  time.Duration
}

// Defaults applied when a variable is unset.
const (
	DefaultAppAddr          = ":5000"
	DefaultDBNs             = "causal"
	DefaultDBDb             = "causal"
	DefaultDBQueryTimeout   = 5 * time.Second
	DefaultDBExecuteTimeout = 10 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
)

// New loads configuration from an optional .env file and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// slog is not configured yet at this point.
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppAddr:          getEnv("APP_ADDR", DefaultAppAddr),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBUser:           os.Getenv("SURREAL_USER"),
		DBPass:           os.Getenv("SURREAL_PASS"),
		DBNs:             getEnv("SURREAL_NS", DefaultDBNs),
		DBDb:             getEnv("SURREAL_DB", DefaultDBDb),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		LogLevel:         getEnv("LOG_LEVEL", "debug"),
		CORSAllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}

	var err error
	if cfg.DBQueryTimeout, err = getDuration("DB_QUERY_TIMEOUT", DefaultDBQueryTimeout); err != nil {
		return nil, err
	}
	if cfg.DBExecuteTimeout, err = getDuration("DB_EXECUTE_TIMEOUT", DefaultDBExecuteTimeout); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = getBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	if raw := os.Getenv("RATE_LIMIT"); raw != "" {
		cfg.RateLimit, err = strconv.ParseFloat(raw, 64)
		if err != nil || cfg.RateLimit < 0 {
			return nil, fmt.Errorf("RATE_LIMIT must be a non-negative number, got %q", raw)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) GetAppAddr() string                 { return c.AppAddr }
func (c *Config) GetDatabaseURL() string             { return c.DatabaseURL }
func (c *Config) GetDBUser() string                  { return c.DBUser }
func (c *Config) GetDBPass() string                  { return c.DBPass }
func (c *Config) GetDBNs() string                    { return c.DBNs }
func (c *Config) GetDBDb() string                    { return c.DBDb }
func (c *Config) GetDBQueryTimeout() time.Duration   { return c.DBQueryTimeout }
func (c *Config) GetDBExecuteTimeout() time.Duration { return c.DBExecuteTimeout }
func (c *Config) GetLogFormat() string               { return c.LogFormat }
func (c *Config) GetLogLevel() string                { return c.LogLevel }
func (c *Config) GetCORSAllowOrigins() []string      { return c.CORSAllowOrigins }
func (c *Config) GetRateLimit() float64              { return c.RateLimit }
func (c *Config) GetMetricsEnabled() bool            { return c.MetricsEnabled }
func (c *Config) GetShutdownTimeout() time.Duration  { return c.ShutdownTimeout }
