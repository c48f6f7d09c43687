package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
)

func TestSweepRefreshesActiveDeployments(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	ctx := context.Background()

	seedVersion(t, store, "v1", "u1", true, true)
	seedVersion(t, store, "v2", "u2", true, true)
	_, err := tracker.Submit(ctx, "v1", "u1")
	require.NoError(t, err)
	_, err = tracker.Submit(ctx, "v2", "u2")
	require.NoError(t, err)

	provider.replies = []statusReply{known(domain.StatusSuccess)}
	r := NewReconciler(tracker, store, 0)

	stats, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepStats{Checked: 2, Terminal: 2}, stats)

	active, err := store.ListActiveDeployments(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, active)

	stats, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Checked)
}

func TestSweepCountsStale(t *testing.T) {
	tracker, store, provider := setupTracker(t)
	ctx := context.Background()
	seedVersion(t, store, "v1", "u1", true, true)
	_, err := tracker.Submit(ctx, "v1", "u1")
	require.NoError(t, err)

	provider.replies = []statusReply{{err: errors.New("timeout")}}
	stats, err := NewReconciler(tracker, store, 10).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepStats{Checked: 1, Stale: 1}, stats)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	tracker, store, _ := setupTracker(t)
	_, err := NewReconciler(tracker, store, 10).Start(context.Background(), "not a schedule")
	assert.Error(t, err)

	c, err := NewReconciler(tracker, store, 10).Start(context.Background(), "*/30 * * * * *")
	require.NoError(t, err)
	<-c.Stop().Done()
}
