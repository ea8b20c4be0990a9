// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New builds a Config holding the defaults.
// - Load layers a YAML file and COMPASS_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite key-value database file. ":memory:" keeps state
	// in process.
	DBPath string `koanf:"db_path"`

	// WorkLogSource is a file path or http(s) URL of the work-log array.
	WorkLogSource string `koanf:"worklog_source"`

	// TestCycleSource is a file path or http(s) URL of the test-cycle array.
	TestCycleSource string `koanf:"testcycle_source"`

	// LoadTimeoutMS bounds each HTTP source fetch.
	LoadTimeoutMS int `koanf:"load_timeout_ms"`

	// MaxRankingLimit caps the limit query parameter of ranking endpoints.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// AutoGenerate runs pending-audit generation once at startup.
	AutoGenerate bool `koanf:"auto_generate"`

	// BusyTimeoutMS is how long a SQLite writer waits on a locked database.
	BusyTimeoutMS int `koanf:"busy_timeout_ms"`

	// ApprovedMin and ReservationsMin are the inclusive lower score bounds
	// of the Aprovado and Aprovado com Ressalvas tiers.
	ApprovedMin     float64 `koanf:"approved_min"`
	ReservationsMin float64 `koanf:"reservations_min"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		DBPath:          "data/compass.db",
		WorkLogSource:   "data/dados.json",
		TestCycleSource: "data/ciclos.json",
		LoadTimeoutMS:   10_000,
		MaxRankingLimit: 100,
		AutoGenerate:    true,
		BusyTimeoutMS:   5_000,
		ApprovedMin:     80,
		ReservationsMin: 60,
	}
}

var (
	validLevels  = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {}}
	validFormats = map[string]struct{}{"text": {}, "json": {}}
)

// Validate checks field ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if _, ok := validLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if _, ok := validFormats[strings.ToLower(c.LogFormat)]; !ok {
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.LoadTimeoutMS <= 0 {
		return fmt.Errorf("%w: load_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.MaxRankingLimit <= 0 {
		return fmt.Errorf("%w: max_ranking_limit must be positive", ErrInvalidConfig)
	}
	if c.BusyTimeoutMS <= 0 {
		return fmt.Errorf("%w: busy_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.ReservationsMin <= 0 || c.ApprovedMin <= c.ReservationsMin || c.ApprovedMin > 100 {
		return fmt.Errorf("%w: need 0 < reservations_min < approved_min <= 100, got %v and %v",
			ErrInvalidConfig, c.ReservationsMin, c.ApprovedMin)
	}
	return nil
}
