package storage

import "time"

// Default store configuration constants.
const (
	defaultCutoverHour = 12
	defaultLockTimeout = 5 * time.Second
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithCutoverHour sets the hour of day at which new events route to the
// second-half partition. Out of range values are ignored.
func WithCutoverHour(hour int) Option {
	return func(s *SQLiteStore) {
		if hour >= 0 && hour <= 23 {
			s.cutoverHour = hour
		}
	}
}

// WithLockTimeout bounds how long a writer waits for the latch.
func WithLockTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}
