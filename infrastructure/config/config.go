// Package config loads engine configuration from a YAML file with
// environment variable overrides. Precedence, lowest to highest:
// built-in defaults, the config file, environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	domainconfig "cascade-engine/domain/config"
)

// Environment names a deployment mode
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the full engine configuration
type Config struct {
	Environment Environment       `yaml:"environment" validate:"oneof=development production"`
	Server      ServerConfig      `yaml:"server"`
	Kernel      KernelConfig      `yaml:"kernel"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Logging     LoggingConfig     `yaml:"logging"`
	Domain      DomainConfig      `yaml:"domain"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// KernelConfig configures the geometry kernel client
type KernelConfig struct {
	BaseURL        string        `yaml:"baseUrl" validate:"required,url"`
	RequestTimeout time.Duration `yaml:"requestTimeout" validate:"min=1ms"`
	Deflection     float64       `yaml:"deflection" validate:"gt=0"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker guarding kernel calls
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"maxRequests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failureThreshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"minRequests"`
}

// PersistenceConfig configures project storage
type PersistenceConfig struct {
	DatabasePath string `yaml:"databasePath" validate:"required"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// DomainConfig mirrors the engineering thresholds; zero values fall back
// to the defaults in ToDomain.
type DomainConfig struct {
	MaxHistoryEntries   int     `yaml:"maxHistoryEntries" validate:"omitempty,min=1"`
	SteepSlopeWarning   float64 `yaml:"steepSlopeWarning"`
	SteepSlopeError     float64 `yaml:"steepSlopeError"`
	MaxVelocity         float64 `yaml:"maxVelocity"`
	MinFreeboard        float64 `yaml:"minFreeboard"`
	ElevationGapError   float64 `yaml:"elevationGapError"`
	MaxExpansionAngle   float64 `yaml:"maxExpansionAngle"`
	MaxContractionAngle float64 `yaml:"maxContractionAngle"`
	MinTransitionLength float64 `yaml:"minTransitionLength"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8420,
			ShutdownTimeout: 10 * time.Second,
		},
		Kernel: KernelConfig{
			BaseURL:        "http://127.0.0.1:8421",
			RequestTimeout: 30 * time.Second,
			Deflection:     0.1,
			Breaker: BreakerConfig{
				MaxRequests:      5,
				Interval:         30 * time.Second,
				Timeout:          60 * time.Second,
				FailureThreshold: 0.6,
				MinRequests:      5,
			},
		},
		Persistence: PersistenceConfig{
			DatabasePath: "cascade.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Environment = Environment(getEnv("CASCADE_ENV", string(cfg.Environment)))
	cfg.Server.Host = getEnv("CASCADE_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("CASCADE_PORT", cfg.Server.Port)
	cfg.Kernel.BaseURL = getEnv("CASCADE_KERNEL_URL", cfg.Kernel.BaseURL)
	cfg.Kernel.RequestTimeout = getEnvDuration("CASCADE_KERNEL_TIMEOUT", cfg.Kernel.RequestTimeout)
	cfg.Persistence.DatabasePath = getEnv("CASCADE_DB_PATH", cfg.Persistence.DatabasePath)
	cfg.Logging.Level = getEnv("CASCADE_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("CASCADE_LOG_FORMAT", cfg.Logging.Format)
}

// ToDomain converts the configured thresholds to the domain config,
// filling unset values from the engineering defaults.
func (c *Config) ToDomain() *domainconfig.DomainConfig {
	d := domainconfig.DefaultDomainConfig()
	if c.Domain.MaxHistoryEntries > 0 {
		d.MaxHistoryEntries = c.Domain.MaxHistoryEntries
	}
	if c.Domain.SteepSlopeWarning > 0 {
		d.SteepSlopeWarning = c.Domain.SteepSlopeWarning
	}
	if c.Domain.SteepSlopeError > 0 {
		d.SteepSlopeError = c.Domain.SteepSlopeError
	}
	if c.Domain.MaxVelocity > 0 {
		d.MaxVelocity = c.Domain.MaxVelocity
	}
	if c.Domain.MinFreeboard > 0 {
		d.MinFreeboard = c.Domain.MinFreeboard
	}
	if c.Domain.ElevationGapError > 0 {
		d.ElevationGapError = c.Domain.ElevationGapError
	}
	if c.Domain.MaxExpansionAngle > 0 {
		d.MaxExpansionAngle = c.Domain.MaxExpansionAngle
	}
	if c.Domain.MaxContractionAngle > 0 {
		d.MaxContractionAngle = c.Domain.MaxContractionAngle
	}
	if c.Domain.MinTransitionLength > 0 {
		d.MinTransitionLength = c.Domain.MinTransitionLength
	}
	return d
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
