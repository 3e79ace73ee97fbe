// Package storage provides the partition store and archive for trip events.
package storage

import (
	"context"
	"time"

	"github.com/okian/passlog/internal/domain/model"
)

// Store provides read/write access to the two working partitions and the
// archive. Implementations must serialize writers: callers wrap every
// read-count -> decide -> append/close sequence in Acquire/release.
type Store interface {
	// SelectPartition routes a request to a working partition by time of day.
	SelectPartition(now time.Time) model.Partition

	// Acquire takes the single-writer latch. The returned release function
	// must be called exactly once. Returns ErrLockTimeout if the latch
	// cannot be taken within the configured timeout.
	Acquire(ctx context.Context) (func(), error)

	// Append adds an event to the given working partition and returns it
	// with its assigned UID.
	Append(ctx context.Context, p model.Partition, e model.Event) (model.Event, error)

	// List returns the full ordered event history of a partition or the
	// archive, oldest first.
	List(ctx context.Context, p model.Partition) ([]model.Event, error)

	// CountTrips counts events in the partition for the member where
	// TimeOut is present; open trips count the same as closed ones.
	CountTrips(ctx context.Context, p model.Partition, memberName, memberID string) (int, error)

	// CloseMatch closes the most recently opened event matching key.
	// It scans the current partition first, then the sibling partition,
	// then the archive. Period and notes are merged into the matched row.
	// Returns the partition actually updated and whether a match was found.
	CloseMatch(ctx context.Context, current model.Partition, key model.MatchKey, timeBack, period, notes string) (model.Partition, bool, error)

	// Migrate moves all non-blank rows from both working partitions into
	// the archive, first-half rows before second-half rows, and clears the
	// partitions. Returns the number of rows moved.
	Migrate(ctx context.Context) (int, error)

	// Counts returns the row count and open-trip count of a partition.
	Counts(ctx context.Context, p model.Partition) (rows, open int, err error)

	// Close releases the underlying storage.
	Close() error
}
