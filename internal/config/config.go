// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultSessionSecret = "change-me-session-secret"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port              string  `mapstructure:"PORT"`
	Env               string  `mapstructure:"APP_ENV"`
	APIBaseURL        string  `mapstructure:"SOCIAL_API_BASE_URL"`
	APIKey            string  `mapstructure:"SOCIAL_API_KEY"`
	APITimeoutSeconds int     `mapstructure:"API_TIMEOUT_SECONDS"`
	RedisURL          string  `mapstructure:"REDIS_URL"`
	SessionSecret     string  `mapstructure:"SESSION_SECRET"`
	SessionTTLHours   int     `mapstructure:"SESSION_TTL_HOURS"`
	PageSize          int     `mapstructure:"PAGE_SIZE"`
	MaxVisiblePages   int     `mapstructure:"MAX_VISIBLE_PAGES"`
	DateLayout        string  `mapstructure:"DATE_LAYOUT"`
	TagDictionaryPath string  `mapstructure:"TAG_DICTIONARY_PATH"`
	CacheTTLSeconds   int     `mapstructure:"CACHE_TTL_SECONDS"`
	FeatureFlags      string  `mapstructure:"FEATURE_FLAGS"`
	TracingEnabled    bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter   string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint      string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler    float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base file is optional; env vars and defaults are enough to run.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8380")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SOCIAL_API_BASE_URL", "https://v2.api.noroff.dev")
	v.SetDefault("SOCIAL_API_KEY", "")
	v.SetDefault("API_TIMEOUT_SECONDS", 10)
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("PAGE_SIZE", 12)
	v.SetDefault("MAX_VISIBLE_PAGES", 50)
	v.SetDefault("DATE_LAYOUT", "02/01/2006")
	v.SetDefault("TAG_DICTIONARY_PATH", "")
	v.SetDefault("CACHE_TTL_SECONDS", 30)
	v.SetDefault("FEATURE_FLAGS", "post_cache=on,tag_filter=on")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// APITimeout is the per-request timeout for calls to the social API.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// SessionTTL is the fallback session lifetime when the token has no expiry.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// CacheTTL is the lifetime of cached API responses.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate ensures that required configuration values are present and sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.APIBaseURL == "" {
		return errors.New("SOCIAL_API_BASE_URL is required")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", c.PageSize)
	}
	if c.MaxVisiblePages < 1 {
		return fmt.Errorf("MAX_VISIBLE_PAGES must be at least 1, got %d", c.MaxVisiblePages)
	}
	if c.APITimeoutSeconds < 1 {
		return errors.New("API_TIMEOUT_SECONDS must be positive")
	}
	if c.SessionTTLHours < 1 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	if c.CacheTTLSeconds < 0 {
		return errors.New("CACHE_TTL_SECONDS cannot be negative")
	}
	if c.TracingSampler < 0 || c.TracingSampler > 1 {
		return errors.New("TRACING_SAMPLER_RATIO must be within [0, 1]")
	}

	if c.IsProduction() {
		if c.APIKey == "" {
			return errors.New("SOCIAL_API_KEY is required in production")
		}
		if c.SessionSecret == defaultSessionSecret || len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be changed and at least 32 characters in production")
		}
	} else if c.APIKey == "" {
		log.Println("WARNING: SOCIAL_API_KEY is empty. Authenticated social endpoints will reject requests.")
	}

	return nil
}
