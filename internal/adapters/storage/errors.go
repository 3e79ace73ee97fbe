package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound      = errors.New("event not found")
	ErrLockTimeout   = errors.New("writer lock acquisition timed out")
	ErrBadPartition  = errors.New("unknown partition")
	ErrWriteFailed   = errors.New("storage write failed")
	ErrReadFailed    = errors.New("storage read failed")
	ErrMigrateFailed = errors.New("archive migration failed")
)
