// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the view process configuration.
type Config struct {
	Port            string
	UpstreamURL     string
	StreamPath      string
	WeatherPath     string
	PollutionPath   string
	DisplayTZ       string
	SnapshotTimeout time.Duration // 0 = no per-request timeout
	AllowedOrigins  []string
	LogLevel        slog.Level
}

// FeedConfig holds the development upstream configuration.
type FeedConfig struct {
	Port          string
	Interval      time.Duration
	WeatherFile   string
	PollutionFile string
	LogLevel      slog.Level
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8090"),
		UpstreamURL:     strings.TrimRight(getEnv("UPSTREAM_URL", "http://localhost:8000"), "/"),
		StreamPath:      getEnv("STREAM_PATH", "/ws/sensor_data/"),
		WeatherPath:     getEnv("WEATHER_PATH", "/api/weather/"),
		PollutionPath:   getEnv("POLLUTION_PATH", "/api/air-pollution/"),
		DisplayTZ:       getEnv("DISPLAY_TZ", "UTC"),
		SnapshotTimeout: getEnvDuration("SNAPSHOT_TIMEOUT", 15*time.Second),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:        level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFeed reads the development upstream configuration.
func LoadFeed() (*FeedConfig, error) {
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &FeedConfig{
		Port:          getEnv("FEED_PORT", "8000"),
		Interval:      getEnvDuration("FEED_INTERVAL", 5*time.Second),
		WeatherFile:   getEnv("FEED_WEATHER_FILE", ""),
		PollutionFile: getEnv("FEED_POLLUTION_FILE", ""),
		LogLevel:      level,
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("invalid configuration: FEED_PORT cannot be empty")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("invalid configuration: FEED_INTERVAL must be > 0")
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return fmt.Errorf("UPSTREAM_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("UPSTREAM_URL must be http or https, got %q", c.UpstreamURL)
	}
	if u.Host == "" {
		return fmt.Errorf("UPSTREAM_URL must include a host")
	}
	for key, path := range map[string]string{
		"STREAM_PATH":    c.StreamPath,
		"WEATHER_PATH":   c.WeatherPath,
		"POLLUTION_PATH": c.PollutionPath,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must start with /", key)
		}
	}
	if _, err := time.LoadLocation(c.DisplayTZ); err != nil {
		return fmt.Errorf("DISPLAY_TZ: %w", err)
	}
	if c.SnapshotTimeout < 0 {
		return fmt.Errorf("SNAPSHOT_TIMEOUT cannot be negative")
	}
	return nil
}

// Location returns the display time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StreamURL returns the push channel URL, using ws or wss to match the
// upstream scheme.
func (c *Config) StreamURL() string {
	switch {
	case strings.HasPrefix(c.UpstreamURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.UpstreamURL, "https://") + c.StreamPath
	default:
		return "ws://" + strings.TrimPrefix(c.UpstreamURL, "http://") + c.StreamPath
	}
}

// WeatherURL returns the weather snapshot URL.
func (c *Config) WeatherURL() string {
	return c.UpstreamURL + c.WeatherPath
}

// PollutionURL returns the air-pollution snapshot URL.
func (c *Config) PollutionURL() string {
	return c.UpstreamURL + c.PollutionPath
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if _, err := strconv.Atoi(value); err == nil {
		return time.Duration(getEnvInt(key, 0)) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
