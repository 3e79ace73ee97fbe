// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	storage "github.com/okian/passlog/internal/adapters/storage"
	"github.com/okian/passlog/internal/domain/dedupe"
	"github.com/okian/passlog/internal/domain/identity"
	"github.com/okian/passlog/internal/domain/model"
	"github.com/okian/passlog/internal/domain/roster"
	"github.com/okian/passlog/internal/domain/threshold"
	"github.com/okian/passlog/internal/domain/types"
	"github.com/okian/passlog/pkg/logger"
	"github.com/okian/passlog/pkg/metrics"
)

// Layout strings for operating-day dates and wall-clock times.
const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Service implements the API dependencies for the hall-pass log.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    storage.Store
	roster   roster.Provider
	resolver identity.Resolver
	gate     *threshold.Gate
	deduper  dedupe.Deduper

	// Configuration
	dbPath      string
	cutoverHour int
	dailyLimit  int
	lockTimeout time.Duration
	dedupeSize  int
	members     []roster.Member
	staff       map[string]string

	// now is injectable so tests can pin the clock.
	now func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDBPath sets the SQLite database location.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithCutoverHour sets the partition cutover hour.
func WithCutoverHour(hour int) Option {
	return func(s *Service) {
		if hour >= 0 && hour <= 23 {
			s.cutoverHour = hour
		}
	}
}

// WithDailyTripLimit sets the threshold gate limit.
func WithDailyTripLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.dailyLimit = limit
		}
	}
}

// WithLockTimeout bounds writer latch acquisition.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithDedupeSize sets the size of the duplicate-submit cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRoster sets the ordered roster served for every operating day.
func WithRoster(members []roster.Member) Option {
	return func(s *Service) {
		s.members = members
	}
}

// WithStaff sets the caller identity table.
func WithStaff(staff map[string]string) Option {
	return func(s *Service) {
		s.staff = staff
	}
}

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStore injects a pre-built store. Used by tests.
func WithStore(store storage.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:      "passlog.db",
		cutoverHour: 12,
		dailyLimit:  2,
		lockTimeout: 5 * time.Second,
		dedupeSize:  10_000,
		staff:       map[string]string{},
		now:         time.Now,
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting hall-pass service...")

	if s.store == nil {
		store, err := storage.Open(s.dbPath,
			storage.WithCutoverHour(s.cutoverHour),
			storage.WithLockTimeout(s.lockTimeout),
		)
		if err != nil {
			return fmt.Errorf("open event store: %w", err)
		}
		s.store = store
	}

	s.roster = roster.NewStaticProvider(s.members)
	s.resolver = identity.NewStaticResolver(s.staff)
	s.gate = threshold.NewGate(threshold.WithDailyLimit(s.dailyLimit))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.started = true
	s.logger.Info(ctx, "hall-pass service started",
		logger.Int("cutoverHour", s.cutoverHour),
		logger.Int("dailyTripLimit", s.dailyLimit),
		logger.Int("rosterSize", len(s.members)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping hall-pass service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(context.Background(), "closing event store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "hall-pass service stopped")
}

// Record runs one Out or Back transition for the caller. All state reads
// and writes happen under the store's writer latch so the count-decide-
// append sequence is atomic with respect to other writers and migration.
func (s *Service) Record(ctx context.Context, caller string, req types.TransitionRequest) (types.TransitionResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return types.TransitionResult{}, ErrNotStarted
	}

	action := model.Action(req.Action)
	if action != model.ActionOut && action != model.ActionBack {
		return types.TransitionResult{}, fmt.Errorf("%w: action %q", ErrBadAction, req.Action)
	}

	// Swallow accidental double submits before touching any state.
	if req.RequestID != "" && s.deduper.SeenAndRecord(ctx, req.RequestID) {
		metrics.RecordDuplicateSubmission()
		s.logger.Debug(ctx, "duplicate submission suppressed",
			logger.String("requestID", req.RequestID),
		)
		return types.TransitionResult{Duplicate: true}, nil
	}

	result, err := s.record(ctx, caller, action, req)
	if err != nil && req.RequestID != "" {
		// The request failed; allow the client to retry with the same id.
		s.deduper.Unrecord(ctx, req.RequestID)
	}
	return result, err
}

func (s *Service) record(ctx context.Context, caller string, action model.Action, req types.TransitionRequest) (types.TransitionResult, error) {
	now := s.now()
	day := now.Format(dateLayout)
	clock := now.Format(timeLayout)
	actorName := s.resolver.Resolve(caller)

	members, err := s.roster.Members(ctx, day)
	if err != nil {
		return types.TransitionResult{}, err
	}
	member, err := roster.Find(members, req.MemberID)
	if err != nil {
		return types.TransitionResult{}, err
	}

	release, err := s.store.Acquire(ctx)
	if err != nil {
		return types.TransitionResult{}, err
	}
	defer release()

	current := s.store.SelectPartition(now)
	countBefore, err := s.store.CountTrips(ctx, current, member.Name, member.ID)
	if err != nil {
		return types.TransitionResult{}, err
	}

	result := types.TransitionResult{
		CountBefore:   countBefore,
		CountAfter:    countBefore,
		MemberName:    member.Name,
		PartitionName: string(current),
	}

	switch action {
	case model.ActionOut:
		decision := s.gate.Evaluate(countBefore, req.ForceOverride)
		if decision.RequiresConfirmation {
			metrics.RecordConfirmationRequired()
			result.ConfirmationNeeded = true
			return result, nil
		}

		event := model.Event{
			Date:       day,
			MemberID:   member.ID,
			MemberName: member.Name,
			Category:   req.Category,
			ActorName:  actorName,
			TimeOut:    clock,
			Period:     req.Period,
			Notes:      req.Notes,
		}
		if _, err := s.store.Append(ctx, current, event); err != nil {
			return types.TransitionResult{}, err
		}

		metrics.RecordTripOpened()
		if req.ForceOverride && countBefore >= s.gate.Limit() {
			metrics.RecordOverrideUsed()
		}
		result.CountAfter = countBefore + 1
		result.Appended = true
		s.logger.Info(ctx, "trip opened",
			logger.String("member", member.Name),
			logger.String("partition", string(current)),
			logger.Int("countAfter", result.CountAfter),
			logger.Bool("override", req.ForceOverride),
		)
		return result, nil

	case model.ActionBack:
		key := model.MatchKey{
			MemberName: member.Name,
			MemberID:   member.ID,
			Category:   req.Category,
			ActorName:  actorName,
		}
		updated, matched, err := s.store.CloseMatch(ctx, current, key, clock, req.Period, req.Notes)
		if err != nil {
			return types.TransitionResult{}, err
		}
		if !matched {
			// Non-error by design: the caller may have mistyped, or the
			// event was never opened. Logged and counted so it is visible.
			metrics.RecordUnmatchedBack()
			s.logger.Warn(ctx, "back request matched no open trip",
				logger.String("member", member.Name),
				logger.String("category", req.Category),
				logger.String("actor", actorName),
			)
			return result, nil
		}

		metrics.RecordTripClosed()
		result.PartitionName = string(updated)
		result.Appended = true
		s.logger.Info(ctx, "trip closed",
			logger.String("member", member.Name),
			logger.String("partition", string(updated)),
		)
		return result, nil
	}

	return types.TransitionResult{}, fmt.Errorf("%w: action %q", ErrBadAction, req.Action)
}

// Migrate drains both working partitions into the archive. The writer
// latch is held for the duration so no transition can interleave.
func (s *Service) Migrate(ctx context.Context) (int, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return 0, ErrNotStarted
	}

	release, err := s.store.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	return s.store.Migrate(ctx)
}

// ListEvents returns up to limit events from a partition or the archive,
// oldest first. A limit below 1 returns everything.
func (s *Service) ListEvents(ctx context.Context, partition string, limit int) ([]model.Event, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	events, err := s.store.List(ctx, model.Partition(partition))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"cutoverHour":    s.cutoverHour,
		"dailyTripLimit": s.dailyLimit,
		"rosterSize":     len(s.members),
	}

	if !s.started {
		return stats
	}

	for _, p := range []model.Partition{model.PartitionFirstHalf, model.PartitionSecondHalf, model.PartitionArchive} {
		rows, open, err := s.store.Counts(ctx, p)
		if err != nil {
			s.logger.Error(ctx, "reading partition counts", logger.Error(err))
			continue
		}
		stats[string(p)+"_rows"] = rows
		if p == model.PartitionArchive {
			metrics.UpdateArchivedRows(rows)
			continue
		}
		stats[string(p)+"_open"] = open
		metrics.UpdatePartitionRows(string(p), rows)
		metrics.UpdateOpenTrips(string(p), open)
	}

	stats["dedupeEntries"] = s.deduper.Size()
	return stats
}

// IsMemberNotFound reports whether err is a roster miss.
func IsMemberNotFound(err error) bool {
	return errors.Is(err, roster.ErrMemberNotFound)
}

// IsRetryable reports whether the caller should simply try again.
func IsRetryable(err error) bool {
	return errors.Is(err, storage.ErrLockTimeout)
}

// Error classification methods for the HTTP dependency bundle.

// IsMemberNotFound implements the API error classifier.
func (s *Service) IsMemberNotFound(err error) bool { return IsMemberNotFound(err) }

// IsRetryable implements the API error classifier.
func (s *Service) IsRetryable(err error) bool { return IsRetryable(err) }
