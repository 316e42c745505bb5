package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const referenceDateLayout = "2006-01-02"

var validate = validator.New()

type AppConfig struct {
	// DataDir holds dated snapshot files (MM-DD-YYYY.csv or YYYY-MM-DD.csv).
	DataDir string `yaml:"data_dir" validate:"required"`
	// FallbackFile is read when DataDir yields no snapshot.
	FallbackFile string `yaml:"fallback_file" validate:"required"`
	// ReferenceDate stamps every fallback row; empty dates rows by their own
	// last-update column instead.
	ReferenceDate string `yaml:"reference_date" validate:"omitempty,datetime=2006-01-02"`

	Port         string        `yaml:"port" validate:"required,numeric"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`

	// Response cache. A zero TTL disables it.
	CacheTTL           time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	CacheSweepInterval time.Duration `yaml:"cache_sweep_interval" validate:"gt=0"`

	// Query defaults and bounds.
	DefaultDays     int `yaml:"default_days" validate:"gt=0"`
	DefaultTopLimit int `yaml:"default_top_limit" validate:"gt=0,ltefield=MaxTopLimit"`
	MaxTopLimit     int `yaml:"max_top_limit" validate:"gt=0"`

	// Consecutive load failures before the source circuit opens.
	BreakerMaxFailures int           `yaml:"breaker_max_failures" validate:"gt=0"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout" validate:"gt=0"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns a config with the stock settings.
func Default() *AppConfig {
	return &AppConfig{
		DataDir:            "./data",
		FallbackFile:       "./01-01-2021.csv",
		ReferenceDate:      "2021-01-01",
		Port:               "5000",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		CacheTTL:           6 * time.Hour,
		CacheSweepInterval: 10 * time.Minute,
		DefaultDays:        30,
		DefaultTopLimit:    10,
		MaxTopLimit:        200,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file, a
// .env file and the environment, in that order of precedence (lowest first).
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	c.DataDir = getenvDefault("DATA_DIR", c.DataDir)
	c.FallbackFile = getenvDefault("FALLBACK_FILE", c.FallbackFile)
	// An explicitly empty REFERENCE_DATE is meaningful.
	if v, ok := os.LookupEnv("REFERENCE_DATE"); ok {
		c.ReferenceDate = v
	}
	c.Port = getenvDefault("PORT", c.Port)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)

	c.DefaultDays = getenvInt("DEFAULT_DAYS", c.DefaultDays)
	c.DefaultTopLimit = getenvInt("DEFAULT_TOP_LIMIT", c.DefaultTopLimit)
	c.MaxTopLimit = getenvInt("MAX_TOP_LIMIT", c.MaxTopLimit)
	c.BreakerMaxFailures = getenvInt("BREAKER_MAX_FAILURES", c.BreakerMaxFailures)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"READ_TIMEOUT", &c.ReadTimeout},
		{"WRITE_TIMEOUT", &c.WriteTimeout},
		{"CACHE_TTL", &c.CacheTTL},
		{"CACHE_SWEEP_INTERVAL", &c.CacheSweepInterval},
		{"BREAKER_OPEN_TIMEOUT", &c.BreakerOpenTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Reference returns the parsed reference date, or the zero time when none
// is configured.
func (c *AppConfig) Reference() time.Time {
	if c.ReferenceDate == "" {
		return time.Time{}
	}
	t, err := time.Parse(referenceDateLayout, c.ReferenceDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
