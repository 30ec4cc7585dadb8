package core

import (
	"context"
	"log/slog"
	"time"

	"LiveCS/entity"
	"LiveCS/internal/lib/sl"
)

// Sweep purges expired data tenant by tenant, honoring each domain's own
// retention window, and reports the totals. Idempotent: running it again
// immediately removes nothing.
func (c *Core) Sweep(ctx context.Context) (entity.SweepStats, error) {
	domains, err := c.repo.ListDomains(ctx)
	if err != nil {
		return entity.SweepStats{}, err
	}

	now := time.Now()
	var total entity.SweepStats
	for i := range domains {
		domain := &domains[i]
		stats, err := c.repo.SweepDomainBefore(ctx, domain.ID, now.Add(-domain.Retention(c.retention)))
		if err != nil {
			return total, err
		}
		total.Add(stats)
	}

	if !total.Empty() {
		c.log.With(
			slog.Int64("messages", total.Messages),
			slog.Int64("rooms", total.Rooms),
			slog.Int64("customers", total.Customers),
		).Info("retention sweep completed")
	}

	return total, nil
}

// SweepBefore purges data older than an explicit cutoff across every tenant.
// On-demand admin path; the cutoff overrides retention windows.
func (c *Core) SweepBefore(ctx context.Context, cutoff time.Time) (entity.SweepStats, error) {
	stats, err := c.repo.SweepBefore(ctx, cutoff)
	if err != nil {
		return entity.SweepStats{}, err
	}

	if !stats.Empty() {
		c.log.With(
			slog.Int64("messages", stats.Messages),
			slog.Int64("rooms", stats.Rooms),
			slog.Int64("customers", stats.Customers),
			slog.Time("cutoff", cutoff),
		).Info("retention sweep completed")
	}

	return stats, nil
}

// RunSweeper runs the retention sweep on a fixed interval until ctx is done.
// A failed sweep is logged and retried on the next tick; it never takes the
// process down.
func (c *Core) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Sweep(ctx); err != nil {
				c.log.Error("retention sweep", sl.Err(err))
			}
		}
	}
}
