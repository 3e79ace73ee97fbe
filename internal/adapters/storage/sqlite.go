package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/okian/passlog/internal/domain/model"
	"github.com/okian/passlog/pkg/logger"
	"github.com/okian/passlog/pkg/metrics"
)

// eventColumns is the select list shared by every row scan.
const eventColumns = "uid, date, member_id, member_name, category, actor_name, time_out, time_back, period, notes"

// SQLiteStore implements Store on a single SQLite database. The two
// working partitions and the archive are separate tables with the same
// schema. A channel latch serializes writers across the whole store so
// migration excludes concurrent transitions.
type SQLiteStore struct {
	db          *sql.DB
	latch       chan struct{}
	cutoverHour int
	lockTimeout time.Duration
	logger      logger.Logger
}

// Open opens (creating if needed) the event database at path.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrWriteFailed)
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &SQLiteStore{
		db:          db,
		latch:       make(chan struct{}, 1),
		cutoverHour: defaultCutoverHour,
		lockTimeout: defaultLockTimeout,
		logger:      logger.Get().Named("storage"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SelectPartition routes by the configured cutover hour.
func (s *SQLiteStore) SelectPartition(now time.Time) model.Partition {
	if now.Hour() < s.cutoverHour {
		return model.PartitionFirstHalf
	}
	return model.PartitionSecondHalf
}

// Acquire takes the single-writer latch or fails with ErrLockTimeout.
func (s *SQLiteStore) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case s.latch <- struct{}{}:
		return func() { <-s.latch }, nil
	case <-timer.C:
		metrics.RecordLockTimeout()
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
	}
}

func workingPartition(p model.Partition) error {
	if p != model.PartitionFirstHalf && p != model.PartitionSecondHalf {
		return fmt.Errorf("%w: %s", ErrBadPartition, p)
	}
	return nil
}

func anyPartition(p model.Partition) error {
	if p != model.PartitionFirstHalf && p != model.PartitionSecondHalf && p != model.PartitionArchive {
		return fmt.Errorf("%w: %s", ErrBadPartition, p)
	}
	return nil
}

// Append adds an event to a working partition, assigning its UID.
func (s *SQLiteStore) Append(ctx context.Context, p model.Partition, e model.Event) (model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStorageWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := workingPartition(p); err != nil {
		return model.Event{}, err
	}

	e.UID = uuid.NewString()
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", p, eventColumns)
	if _, err := s.db.ExecContext(ctx, insert,
		e.UID, e.Date, e.MemberID, e.MemberName, e.Category, e.ActorName,
		e.TimeOut, e.TimeBack, e.Period, e.Notes,
	); err != nil {
		metrics.RecordStorageError()
		return model.Event{}, fmt.Errorf("%w: append to %s: %v", ErrWriteFailed, p, err)
	}
	return e, nil
}

// List returns all rows of a partition or the archive, oldest first.
func (s *SQLiteStore) List(ctx context.Context, p model.Partition) ([]model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStorageQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := anyPartition(p); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC", eventColumns, p)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		metrics.RecordStorageError()
		return nil, fmt.Errorf("%w: list %s: %v", ErrReadFailed, p, err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			metrics.RecordStorageError()
			return nil, fmt.Errorf("%w: list %s: %v", ErrReadFailed, p, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStorageError()
		return nil, fmt.Errorf("%w: list %s: %v", ErrReadFailed, p, err)
	}
	return events, nil
}

// CountTrips counts the member's events in the partition with TimeOut set.
func (s *SQLiteStore) CountTrips(ctx context.Context, p model.Partition, memberName, memberID string) (int, error) {
	if err := anyPartition(p); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE member_name = ? AND member_id = ? AND time_out <> ''", p)
	var count int
	if err := s.db.QueryRowContext(ctx, query, memberName, memberID).Scan(&count); err != nil {
		metrics.RecordStorageError()
		return 0, fmt.Errorf("%w: count trips in %s: %v", ErrReadFailed, p, err)
	}
	return count, nil
}

// CloseMatch finds and closes the most recently opened event matching key.
// Search order: current working partition, then its sibling, then the
// archive. The partition actually updated is reported because it may
// differ from the caller's time-derived expectation.
func (s *SQLiteStore) CloseMatch(ctx context.Context, current model.Partition, key model.MatchKey, timeBack, period, notes string) (model.Partition, bool, error) {
	if err := workingPartition(current); err != nil {
		return "", false, err
	}

	for _, p := range []model.Partition{current, current.Other(), model.PartitionArchive} {
		closed, err := s.closeIn(ctx, p, key, timeBack, period, notes)
		if err != nil {
			return "", false, err
		}
		if closed {
			if p == model.PartitionArchive {
				metrics.RecordArchiveReconciled()
			}
			return p, true, nil
		}
	}
	return "", false, nil
}

// closeIn closes the newest open match in one table, merging annotations.
func (s *SQLiteStore) closeIn(ctx context.Context, p model.Partition, key model.MatchKey, timeBack, period, notes string) (bool, error) {
	query := fmt.Sprintf(
		`SELECT id, period, notes FROM %s
		 WHERE member_name = ? AND member_id = ? AND category = ? AND actor_name = ?
		   AND time_out <> '' AND time_back = ''
		 ORDER BY id DESC LIMIT 1`, p)

	var (
		id       int64
		curEvent model.Event
	)
	err := s.db.QueryRowContext(ctx, query,
		key.MemberName, key.MemberID, key.Category, key.ActorName,
	).Scan(&id, &curEvent.Period, &curEvent.Notes)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		metrics.RecordStorageError()
		return false, fmt.Errorf("%w: match in %s: %v", ErrReadFailed, p, err)
	}

	curEvent.MergeAnnotations(period, notes)

	update := fmt.Sprintf("UPDATE %s SET time_back = ?, period = ?, notes = ? WHERE id = ? AND time_back = ''", p)
	res, err := s.db.ExecContext(ctx, update, timeBack, curEvent.Period, curEvent.Notes, id)
	if err != nil {
		metrics.RecordStorageError()
		return false, fmt.Errorf("%w: close in %s: %v", ErrWriteFailed, p, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: close in %s: %v", ErrWriteFailed, p, err)
	}
	return n == 1, nil
}

// Migrate drains both working partitions into the archive in one
// transaction: first-half rows before second-half rows, original order
// preserved, blank rows dropped. Partitions are left empty.
func (s *SQLiteStore) Migrate(ctx context.Context) (int, error) {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStorageError()
		return 0, fmt.Errorf("%w: begin: %v", ErrMigrateFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	moved := 0
	for _, p := range []model.Partition{model.PartitionFirstHalf, model.PartitionSecondHalf} {
		n, err := migratePartition(ctx, tx, p)
		if err != nil {
			metrics.RecordStorageError()
			return 0, err
		}
		moved += n
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStorageError()
		return 0, fmt.Errorf("%w: commit: %v", ErrMigrateFailed, err)
	}

	metrics.RecordMigrationRun()
	metrics.RecordMigratedRows(moved)
	s.logger.Info(ctx, "archive migration complete",
		logger.Int("rows", moved),
		logger.Int("ms", int(time.Since(start).Milliseconds())),
	)
	return moved, nil
}

func migratePartition(ctx context.Context, tx *sql.Tx, p model.Partition) (int, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC", eventColumns, p)
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %v", ErrMigrateFailed, p, err)
	}

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("%w: read %s: %v", ErrMigrateFailed, p, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("%w: read %s: %v", ErrMigrateFailed, p, err)
	}
	rows.Close()

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		model.PartitionArchive, eventColumns)
	moved := 0
	for _, e := range events {
		if e.Blank() {
			continue
		}
		if _, err := tx.ExecContext(ctx, insert,
			e.UID, e.Date, e.MemberID, e.MemberName, e.Category, e.ActorName,
			e.TimeOut, e.TimeBack, e.Period, e.Notes,
		); err != nil {
			return 0, fmt.Errorf("%w: append %s to archive: %v", ErrMigrateFailed, p, err)
		}
		moved++
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", p)); err != nil {
		return 0, fmt.Errorf("%w: clear %s: %v", ErrMigrateFailed, p, err)
	}
	return moved, nil
}

// Counts returns the row count and open-trip count of a partition.
func (s *SQLiteStore) Counts(ctx context.Context, p model.Partition) (int, int, error) {
	if err := anyPartition(p); err != nil {
		return 0, 0, err
	}

	var rows, open int
	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(CASE WHEN time_out <> '' AND time_back = '' THEN 1 ELSE 0 END), 0) FROM %s", p)
	if err := s.db.QueryRowContext(ctx, query).Scan(&rows, &open); err != nil {
		metrics.RecordStorageError()
		return 0, 0, fmt.Errorf("%w: counts for %s: %v", ErrReadFailed, p, err)
	}
	return rows, open, nil
}

func scanEvent(rows *sql.Rows) (model.Event, error) {
	var e model.Event
	err := rows.Scan(
		&e.UID, &e.Date, &e.MemberID, &e.MemberName, &e.Category, &e.ActorName,
		&e.TimeOut, &e.TimeBack, &e.Period, &e.Notes,
	)
	return e, err
}
