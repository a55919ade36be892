package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:              "8380",
		Env:               "development",
		APIBaseURL:        "https://v2.api.noroff.dev",
		APIKey:            "key",
		APITimeoutSeconds: 10,
		SessionSecret:     strings.Repeat("s", 32),
		SessionTTLHours:   24,
		PageSize:          12,
		MaxVisiblePages:   50,
		CacheTTLSeconds:   30,
		TracingSampler:    1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid development", func(*Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing base URL", func(c *Config) { c.APIBaseURL = "" }, true},
		{"Page size zero", func(c *Config) { c.PageSize = 0 }, true},
		{"Page size too large", func(c *Config) { c.PageSize = 101 }, true},
		{"Max visible pages zero", func(c *Config) { c.MaxVisiblePages = 0 }, true},
		{"Negative cache TTL", func(c *Config) { c.CacheTTLSeconds = -1 }, true},
		{"Sampler out of range", func(c *Config) { c.TracingSampler = 1.5 }, true},
		{"Development without API key", func(c *Config) { c.APIKey = "" }, false},
		{"Production without API key", func(c *Config) { c.Env = "production"; c.APIKey = "" }, true},
		{"Production with default secret", func(c *Config) { c.Env = "prod"; c.SessionSecret = defaultSessionSecret }, true},
		{"Production with short secret", func(c *Config) { c.Env = "production"; c.SessionSecret = "short" }, true},
		{"Production ok", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 10*time.Second, c.APITimeout())
	assert.Equal(t, 24*time.Hour, c.SessionTTL())
	assert.Equal(t, 30*time.Second, c.CacheTTL())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SOCIAL_API_BASE_URL", " http://localhost:9000/ ")
	t.Setenv("PAGE_SIZE", "6")
	t.Setenv("MAX_VISIBLE_PAGES", "3")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", c.APIBaseURL)
	assert.Equal(t, 6, c.PageSize)
	assert.Equal(t, 3, c.MaxVisiblePages)
	assert.Equal(t, "02/01/2006", c.DateLayout)
}

func TestLoadConfig_MissingProfile(t *testing.T) {
	t.Setenv("APP_ENV", "staging-does-not-exist")

	_, err := LoadConfig()
	assert.Error(t, err)
}
