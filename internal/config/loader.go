package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PASSLOG_CONFIG is set
//  3. env (prefix PASSLOG_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("PASSLOG_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: PASSLOG_ADDR, PASSLOG_CUTOVER_HOUR, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PASSLOG_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "passlog_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.CutoverHour < 0 || cfg.CutoverHour > 23:
		return fmt.Errorf("%w: cutover_hour must be 0-23", ErrInvalidConfig)
	case cfg.DailyTripLimit < 1:
		return fmt.Errorf("%w: daily_trip_limit must be at least 1", ErrInvalidConfig)
	case cfg.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case cfg.LockTimeoutMS < 1:
		return fmt.Errorf("%w: lock_timeout_ms must be positive", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(cfg.Roster))
	for _, m := range cfg.Roster {
		if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: roster entries need both id and name", ErrInvalidConfig)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("%w: duplicate roster id %s", ErrInvalidConfig, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}
