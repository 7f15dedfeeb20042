// Package config loads the inference-client configuration.
//
// Precedence: defaults → YAML file → environment variables.
//
//	cfg, err := config.Load("config.yaml")
//
// Environment keys follow REDDYFIT_<SECTION>_<FIELD>, e.g.
// REDDYFIT_LLM_API_KEY; the bare GEMINI_API_KEY also works as the
// credential fallback.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	LLM   LLMConfig   `yaml:"llm"`
	Redis RedisConfig `yaml:"redis"`
	Log   LogConfig   `yaml:"log"`
}

// LLMConfig configures the inference transport and retry behavior.
type LLMConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	FullModel         string        `yaml:"full_model"`
	FlashModel        string        `yaml:"flash_model"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// RedisConfig configures the optional shared lookup-cache tier.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:        "https://generativelanguage.googleapis.com",
			FullModel:      "gemini-2.5-pro",
			FlashModel:     "gemini-2.5-flash",
			Timeout:        60 * time.Second,
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty; a missing file is an error), then env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.LLM.APIKey, "REDDYFIT_LLM_API_KEY")
	if c.LLM.APIKey == "" {
		setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	}
	setString(&c.LLM.BaseURL, "REDDYFIT_LLM_BASE_URL")
	setString(&c.LLM.FullModel, "REDDYFIT_LLM_FULL_MODEL")
	setString(&c.LLM.FlashModel, "REDDYFIT_LLM_FLASH_MODEL")
	setDuration(&c.LLM.Timeout, "REDDYFIT_LLM_TIMEOUT")
	setInt(&c.LLM.MaxAttempts, "REDDYFIT_LLM_MAX_ATTEMPTS")
	setDuration(&c.LLM.InitialBackoff, "REDDYFIT_LLM_INITIAL_BACKOFF")
	setFloat(&c.LLM.RequestsPerSecond, "REDDYFIT_LLM_REQUESTS_PER_SECOND")

	setBool(&c.Redis.Enabled, "REDDYFIT_REDIS_ENABLED")
	setString(&c.Redis.Addr, "REDDYFIT_REDIS_ADDR")
	setString(&c.Redis.Password, "REDDYFIT_REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDDYFIT_REDIS_DB")

	setString(&c.Log.Level, "REDDYFIT_LOG_LEVEL")
	setString(&c.Log.Format, "REDDYFIT_LOG_FORMAT")
}

// Validate checks the fields every operation depends on.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set REDDYFIT_LLM_API_KEY or GEMINI_API_KEY)")
	}
	if c.LLM.FullModel == "" || c.LLM.FlashModel == "" {
		return fmt.Errorf("llm.full_model and llm.flash_model are required")
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be at least 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
