// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"

	"github.com/okian/passlog/internal/domain/roster"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CutoverHour splits the operating day into the two working partitions.
	CutoverHour int `koanf:"cutover_hour"`

	// DailyTripLimit is the trip count at which an Out needs confirmation.
	DailyTripLimit int `koanf:"daily_trip_limit"`

	// DBPath locates the SQLite event database.
	DBPath string `koanf:"db_path"`

	// LockTimeoutMS bounds writer latch acquisition.
	LockTimeoutMS int `koanf:"lock_timeout_ms"`

	// MigrateIntervalMin schedules automatic archive migration; 0 disables it.
	MigrateIntervalMin int `koanf:"migrate_interval_min"`

	// DedupeSize bounds the duplicate-submit cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps GET /partitions/{name}/events?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// Roster is the ordered member list served for every operating day.
	Roster []roster.Member `koanf:"roster"`

	// Staff maps caller identities to display names.
	Staff map[string]string `koanf:"staff"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		CutoverHour:        12,
		DailyTripLimit:     2,
		DBPath:             "passlog.db",
		LockTimeoutMS:      5_000,
		MigrateIntervalMin: 0,
		DedupeSize:         10_000,
		MaxListLimit:       500,
		Staff:              map[string]string{},
	}
	return c
}
