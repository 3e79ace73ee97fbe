package smoke

import (
	"context"
	"fmt"

	"github.com/okian/passlog/pkg/logger"
)

// listLimit is deliberately generous; smoke runs are small.
const listLimit = 500

// runMigrate drains the working partitions and checks the archive holds
// what they lost.
func runMigrate(ctx context.Context, config *Config, c *client, stats *Stats) error {
	logger.Get().Info(ctx, "running migration scenario")

	before := 0
	for _, p := range []string{"first_half", "second_half"} {
		res, err := c.getEvents(ctx, p, listLimit)
		if err != nil {
			return err
		}
		before += len(res.Events)
	}

	moved, err := c.postMigrate(ctx)
	if err != nil {
		return err
	}
	stats.MigratedRows = moved

	if moved != before {
		return fmt.Errorf("migration moved %d rows, expected %d", moved, before)
	}

	for _, p := range []string{"first_half", "second_half"} {
		res, err := c.getEvents(ctx, p, listLimit)
		if err != nil {
			return err
		}
		if len(res.Events) != 0 {
			return fmt.Errorf("partition %s still holds %d rows after migration", p, len(res.Events))
		}
	}

	archive, err := c.getEvents(ctx, "archive", listLimit)
	if err != nil {
		return err
	}
	stats.ArchivedTotal = len(archive.Events)
	if stats.ArchivedTotal < moved {
		return fmt.Errorf("archive holds %d rows, expected at least %d", stats.ArchivedTotal, moved)
	}

	open := 0
	for _, e := range archive.Events {
		if e.TimeOut != "" && e.TimeBack == "" {
			open++
		}
	}

	logger.Get().Info(ctx, "migration verified",
		logger.Int("moved", moved),
		logger.Int("archived", stats.ArchivedTotal),
		logger.Int("stillOpen", open))
	return nil
}
