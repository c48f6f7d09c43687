package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

const DefaultReconcileBatch = 100

// Reconciler refreshes builds nobody is polling so they still reach a
// terminal status.
type Reconciler struct {
	tracker     *Tracker
	deployments DeploymentStore
	batch       int
}

func NewReconciler(tracker *Tracker, deployments DeploymentStore, batch int) *Reconciler {
	if batch <= 0 {
		batch = DefaultReconcileBatch
	}
	return &Reconciler{tracker: tracker, deployments: deployments, batch: batch}
}

// SweepStats summarises one pass.
type SweepStats struct {
	Checked  int
	Terminal int
	Stale    int
	Failed   int
}

// Sweep refreshes every non-terminal deployment once, acting as its owner.
func (r *Reconciler) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	active, err := r.deployments.ListActiveDeployments(ctx, r.batch)
	if err != nil {
		return stats, fmt.Errorf("list active deployments: %w", err)
	}
	for _, d := range active {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Checked++
		res, err := r.tracker.RefreshStatus(ctx, d.BuildID, d.UserID)
		if err != nil {
			stats.Failed++
			slog.WarnContext(ctx, "reconcile failed", "build_id", d.BuildID, "error", err)
			continue
		}
		switch {
		case res.Stale:
			stats.Stale++
		case res.Record.Status.IsTerminal():
			stats.Terminal++
		}
	}
	return stats, nil
}

// Start schedules Sweep on a six-field cron expression and returns the
// running scheduler. Stop it to end the loop.
func (r *Reconciler) Start(ctx context.Context, schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		stats, err := r.Sweep(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "reconcile sweep failed", "error", err)
			return
		}
		if stats.Checked > 0 {
			slog.InfoContext(ctx, "reconcile sweep finished",
				"checked", stats.Checked,
				"terminal", stats.Terminal,
				"stale", stats.Stale,
				"failed", stats.Failed)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	c.Start()
	slog.Info("reconciler started", "schedule", schedule, "batch", r.batch)
	return c, nil
}
