package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	EnvName  string
	LogLevel string

	Host string
	// Port 0 binds an ephemeral port chosen by the OS.
	Port int

	RequestTimeout time.Duration
	MaxBodyBytes   int64

	RateLimitEnabled bool
	RateLimitRPS     int
	RateLimitBurst   int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	MetricsWindow time.Duration
}

type fileConfig struct {
	Server struct {
		Host string `yaml:"host"`
		Port *int   `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Request struct {
		Timeout      string `yaml:"timeout"`
		MaxBodyBytes int64  `yaml:"max_body_bytes"`
	} `yaml:"request"`

	Reliability struct {
		RateLimitEnabled *bool `yaml:"rate_limit_enabled"`
		RateLimitRPS     int   `yaml:"rate_limit_rps"`
		RateLimitBurst   int   `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Metrics struct {
		Window string `yaml:"window"`
	} `yaml:"metrics"`
}

// envConfig holds the environment overrides. Unset pointer fields leave the file value alone.
type envConfig struct {
	EnvName          string `env:"ENV_NAME" envDefault:"dev"`
	LogLevel         string `env:"LOG_LEVEL"`
	Host             string `env:"APP_HOST"`
	Port             *int   `env:"APP_PORT"`
	RateLimitEnabled *bool  `env:"RATE_LIMIT_ENABLED"`
}

// Load reads config/{ENV_NAME}.yaml (default dev) under the working directory,
// then applies environment overrides. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFrom(cwd)
}

// LoadFrom is Load rooted at dir instead of the working directory.
func LoadFrom(dir string) (*Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	configPath := filepath.Join(dir, "config", ec.EnvName+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{EnvName: ec.EnvName}

	cfg.Host = firstNonEmpty(ec.Host, fc.Server.Host, "127.0.0.1")
	cfg.Port = 8000
	if fc.Server.Port != nil {
		cfg.Port = *fc.Server.Port
	}
	if ec.Port != nil {
		cfg.Port = *ec.Port
	}
	cfg.LogLevel = firstNonEmpty(ec.LogLevel, fc.Log.Level, "INFO")

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)
	cfg.MaxBodyBytes = fc.Request.MaxBodyBytes
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}

	cfg.RateLimitEnabled = true
	if fc.Reliability.RateLimitEnabled != nil {
		cfg.RateLimitEnabled = *fc.Reliability.RateLimitEnabled
	}
	if ec.RateLimitEnabled != nil {
		cfg.RateLimitEnabled = *ec.RateLimitEnabled
	}
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)
	cfg.MetricsWindow = parseDuration(fc.Metrics.Window, 60*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// validate performs post-load validation. Ensures the port fits in 16 bits
// and the in-flight drain fits inside the shutdown budget.
func validate(cfg *Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Port)
	}
	if cfg.ShutdownInFlightCheckInterval >= cfg.ShutdownInFlightTimeout {
		cfg.ShutdownInFlightCheckInterval = cfg.ShutdownInFlightTimeout / 10
	}
	return nil
}
