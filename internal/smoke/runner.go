package smoke

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/passlog/pkg/logger"
)

// Health polling constants.
const (
	healthAttempts = 10
	healthDelay    = 500 * time.Millisecond
)

// Run executes the complete smoke run against a live service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting smoke run",
		logger.String("baseURL", config.BaseURL),
		logger.String("caller", config.Caller),
		logger.Int("members", len(config.Members)),
		logger.Int("trips", config.Trips),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	if len(config.Members) == 0 {
		return fmt.Errorf("no member ids to run with")
	}

	c := newClient(config.BaseURL, config.Caller, config.Timeout)

	// Step 1: Wait for the service to come up
	if err := c.waitHealthy(ctx, healthAttempts, healthDelay); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")

	// Step 2: Open and close trips concurrently
	if err := runTrips(ctx, config, c, stats); err != nil {
		return fmt.Errorf("trip round-trips failed: %w", err)
	}

	// Step 3: Push the first member over the daily threshold
	if err := runThreshold(ctx, config, c, stats); err != nil {
		return fmt.Errorf("threshold scenario failed: %w", err)
	}

	// Step 4: Replay a submission with the same request id
	if err := runDuplicate(ctx, config, c, stats); err != nil {
		return fmt.Errorf("duplicate scenario failed: %w", err)
	}

	// Step 5: Submit a Back with nothing open
	if err := runUnmatched(ctx, config, c, stats); err != nil {
		return fmt.Errorf("unmatched scenario failed: %w", err)
	}

	// Step 6: Migrate everything into the archive and verify
	if err := runMigrate(ctx, config, c, stats); err != nil {
		return fmt.Errorf("migration scenario failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "smoke run completed successfully")
	return nil
}

// runTrips opens and immediately closes one trip per member per round,
// spread over a worker pool.
func runTrips(ctx context.Context, config *Config, c *client, stats *Stats) error {
	logger.Get().Info(ctx, "running trip round-trips",
		logger.Int("members", len(config.Members)),
		logger.Int("trips", config.Trips))

	var (
		submitted int64
		opened    int64
		closed    int64
		failed    int64
	)

	memberChan := make(chan string, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range memberChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&submitted, 2)

				out, _, err := c.postTransition(ctx, transition{
					RequestID: uuid.NewString(),
					MemberID:  id,
					Category:  config.Category,
					Action:    "Out",
				})
				if err != nil || !out.Appended {
					atomic.AddInt64(&failed, 1)
					logger.Get().Warn(ctx, "out not appended",
						logger.String("memberID", id), logger.Error(err))
					continue
				}
				atomic.AddInt64(&opened, 1)

				back, _, err := c.postTransition(ctx, transition{
					RequestID: uuid.NewString(),
					MemberID:  id,
					Category:  config.Category,
					Action:    "Back",
				})
				if err != nil || !back.Appended {
					atomic.AddInt64(&failed, 1)
					logger.Get().Warn(ctx, "back not matched",
						logger.String("memberID", id), logger.Error(err))
					continue
				}
				atomic.AddInt64(&closed, 1)

				if config.Verbose {
					logger.Get().Debug(ctx, "trip closed",
						logger.String("memberID", id),
						logger.String("partition", back.PartitionName),
						logger.Int("countAfter", out.CountAfter))
				}
			}
		}()
	}

	go func() {
		defer close(memberChan)
		for round := 0; round < config.Trips; round++ {
			for _, id := range config.Members {
				select {
				case <-ctx.Done():
					return
				case memberChan <- id:
				}
			}
		}
	}()

	wg.Wait()

	stats.Submitted += int(atomic.LoadInt64(&submitted))
	stats.Opened += int(atomic.LoadInt64(&opened))
	stats.Closed += int(atomic.LoadInt64(&closed))
	stats.Failed += int(atomic.LoadInt64(&failed))

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d transitions failed", stats.Failed, stats.Submitted)
	}

	logger.Get().Info(ctx, "trip round-trips completed",
		logger.Int("opened", stats.Opened),
		logger.Int("closed", stats.Closed))
	return nil
}

// runThreshold submits one more Out for the first member. After the
// warm-up rounds the member is at or past the daily limit, so the plain
// Out must come back confirmation_needed, and the forced retry must land.
func runThreshold(ctx context.Context, config *Config, c *client, stats *Stats) error {
	id := config.Members[0]
	logger.Get().Info(ctx, "running threshold scenario", logger.String("memberID", id))

	plain, _, err := c.postTransition(ctx, transition{
		RequestID: uuid.NewString(),
		MemberID:  id,
		Category:  config.Category,
		Action:    "Out",
	})
	if err != nil {
		return err
	}
	stats.Submitted++

	if !plain.ConfirmationNeeded {
		// The configured limit may be higher than the warm-up rounds.
		logger.Get().Warn(ctx, "threshold not reached; skipping override check",
			logger.Int("countBefore", plain.CountBefore))
		if plain.Appended {
			stats.Opened++
			return c.closeTrip(ctx, config, id, stats)
		}
		return nil
	}
	if plain.Appended {
		return fmt.Errorf("confirmation-needed response still appended a row")
	}
	stats.Blocked++

	forced, _, err := c.postTransition(ctx, transition{
		RequestID:     uuid.NewString(),
		MemberID:      id,
		Category:      config.Category,
		Action:        "Out",
		ForceOverride: true,
	})
	if err != nil {
		return err
	}
	stats.Submitted++

	if !forced.Appended {
		return fmt.Errorf("forced override did not append")
	}
	stats.Opened++
	stats.Overridden++

	logger.Get().Info(ctx, "override accepted",
		logger.Int("countBefore", forced.CountBefore),
		logger.Int("countAfter", forced.CountAfter))

	return c.closeTrip(ctx, config, id, stats)
}

// closeTrip sends a Back for id and records the outcome.
func (c *client) closeTrip(ctx context.Context, config *Config, id string, stats *Stats) error {
	back, _, err := c.postTransition(ctx, transition{
		RequestID: uuid.NewString(),
		MemberID:  id,
		Category:  config.Category,
		Action:    "Back",
	})
	if err != nil {
		return err
	}
	stats.Submitted++
	if !back.Appended {
		return fmt.Errorf("back after override did not match")
	}
	stats.Closed++
	return nil
}

// runDuplicate submits the same request id twice and expects the second
// submission to be suppressed.
func runDuplicate(ctx context.Context, config *Config, c *client, stats *Stats) error {
	id := config.Members[len(config.Members)-1]
	requestID := uuid.NewString()
	logger.Get().Info(ctx, "running duplicate scenario", logger.String("memberID", id))

	first, _, err := c.postTransition(ctx, transition{
		RequestID:     requestID,
		MemberID:      id,
		Category:      config.Category,
		Action:        "Out",
		ForceOverride: true,
	})
	if err != nil {
		return err
	}
	stats.Submitted++
	if !first.Appended {
		return fmt.Errorf("first submission did not append")
	}
	stats.Opened++

	second, _, err := c.postTransition(ctx, transition{
		RequestID:     requestID,
		MemberID:      id,
		Category:      config.Category,
		Action:        "Out",
		ForceOverride: true,
	})
	if err != nil {
		return err
	}
	stats.Submitted++
	if !second.Duplicate {
		return fmt.Errorf("replayed request id was not flagged duplicate")
	}
	if second.Appended {
		return fmt.Errorf("replayed request id appended a second row")
	}
	stats.Duplicates++

	return c.closeTrip(ctx, config, id, stats)
}

// runUnmatched submits a Back with nothing open and expects a quiet
// non-append rather than an error.
func runUnmatched(ctx context.Context, config *Config, c *client, stats *Stats) error {
	id := config.Members[0]
	logger.Get().Info(ctx, "running unmatched scenario", logger.String("memberID", id))

	res, _, err := c.postTransition(ctx, transition{
		RequestID: uuid.NewString(),
		MemberID:  id,
		Category:  config.Category,
		Action:    "Back",
	})
	if err != nil {
		return err
	}
	stats.Submitted++
	if res.Appended {
		return fmt.Errorf("back with nothing open reported a match")
	}
	stats.Unmatched++
	return nil
}

// displayFinalStats logs the run summary.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "smoke run summary",
		logger.Int("submitted", stats.Submitted),
		logger.Int("opened", stats.Opened),
		logger.Int("closed", stats.Closed),
		logger.Int("blocked", stats.Blocked),
		logger.Int("overridden", stats.Overridden),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("unmatched", stats.Unmatched),
		logger.Int("migratedRows", stats.MigratedRows),
		logger.Int("archivedTotal", stats.ArchivedTotal),
		logger.String("duration", stats.Duration.String()))
}
