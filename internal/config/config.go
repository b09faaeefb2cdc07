package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Service      ServiceConfig      `mapstructure:"service"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Status       StatusConfig       `mapstructure:"status"`
	Playback     PlaybackConfig     `mapstructure:"playback"`
	Console      ConsoleConfig      `mapstructure:"console"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Log          LogConfig          `mapstructure:"log"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type ServiceConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
	ChatTimeout   time.Duration `mapstructure:"chat_timeout"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
	TrainTimeout  time.Duration `mapstructure:"train_timeout"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

type ConnectivityConfig struct {
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	BackoffMax    time.Duration `mapstructure:"backoff_max"`
}

type StatusConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type PlaybackConfig struct {
	MinStepDelay time.Duration `mapstructure:"min_step_delay"`
	MaxStepDelay time.Duration `mapstructure:"max_step_delay"`
	NominalSteps int           `mapstructure:"nominal_steps"`
}

type ConsoleConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

type StorageConfig struct {
	Type        string `mapstructure:"type"`
	DatabaseURL string `mapstructure:"database_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Traces bool `mapstructure:"traces"`
}

// EnvPrefix is prepended to every environment override, e.g. REASONING_SERVICE_BASE_URL
const EnvPrefix = "REASONING"

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.base_url", "http://localhost:8000/api")
	v.SetDefault("service.timeout", 10*time.Second)
	v.SetDefault("service.probe_timeout", 3*time.Second)
	v.SetDefault("service.chat_timeout", 30*time.Second)
	v.SetDefault("service.upload_timeout", 30*time.Second)
	v.SetDefault("service.train_timeout", 60*time.Second)
	v.SetDefault("service.jwt_secret", "")
	v.SetDefault("service.token_ttl", 5*time.Minute)
	v.SetDefault("service.breaker.enabled", true)
	v.SetDefault("service.breaker.max_requests", 3)
	v.SetDefault("service.breaker.interval", 60*time.Second)
	v.SetDefault("service.breaker.timeout", 30*time.Second)
	v.SetDefault("service.breaker.consecutive_failures", 5)

	v.SetDefault("connectivity.probe_interval", 10*time.Second)
	v.SetDefault("connectivity.backoff_max", time.Duration(0))

	v.SetDefault("status.poll_interval", 5*time.Second)

	v.SetDefault("playback.min_step_delay", 800*time.Millisecond)
	v.SetDefault("playback.max_step_delay", 2*time.Second)
	v.SetDefault("playback.nominal_steps", 7)

	v.SetDefault("console.port", 8080)
	v.SetDefault("console.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("console.jwt_secret", "")
	v.SetDefault("console.read_timeout", 15*time.Second)
	v.SetDefault("console.write_timeout", 60*time.Second)

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.database_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("telemetry.traces", false)
}

// Load reads configuration from the YAML file at configPath (optional when empty),
// applies REASONING_* environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading files or environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	// defaults always decode
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate rejects configurations the session controller cannot run with
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Service.BaseURL) == "" {
		errs = append(errs, errors.New("service.base_url is required"))
	}

	positive := map[string]time.Duration{
		"service.timeout":             c.Service.Timeout,
		"service.probe_timeout":       c.Service.ProbeTimeout,
		"service.chat_timeout":        c.Service.ChatTimeout,
		"service.upload_timeout":      c.Service.UploadTimeout,
		"service.train_timeout":       c.Service.TrainTimeout,
		"connectivity.probe_interval": c.Connectivity.ProbeInterval,
		"status.poll_interval":        c.Status.PollInterval,
	}
	for _, key := range slices.Sorted(maps.Keys(positive)) {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, positive[key]))
		}
	}

	if c.Playback.MinStepDelay < 0 {
		errs = append(errs, fmt.Errorf("playback.min_step_delay must not be negative, got %s", c.Playback.MinStepDelay))
	}
	if c.Playback.MinStepDelay > c.Playback.MaxStepDelay {
		errs = append(errs, fmt.Errorf("playback.min_step_delay (%s) exceeds playback.max_step_delay (%s)",
			c.Playback.MinStepDelay, c.Playback.MaxStepDelay))
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.type %q", c.Storage.Type))
	}

	return errors.Join(errs...)
}
