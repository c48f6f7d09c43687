package redisdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
	deploydomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return New(client), mr
}

func seedUser(t *testing.T, s *Store, id string, tokens int64) {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), &authdomain.User{
		ID: id, Email: id + "@example.com", Role: authdomain.RoleUser, Plan: authdomain.DefaultPlan,
		Status: authdomain.StatusActive, TokensRemaining: tokens, CreatedAt: time.Now(),
	}))
}

func TestProjectLifecycle(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		now := base.Add(time.Duration(i) * time.Minute)
		p := &domain.Project{ID: fmt.Sprintf("p%d", i), UserID: "u1", Idea: "idea", CurrentVersionID: fmt.Sprintf("v%d", i), CreatedAt: now}
		require.NoError(t, s.CreateProject(ctx, p, domain.NewVersion(p.CurrentVersionID, p.ID, "u1", now)))
	}
	other := &domain.Project{ID: "px", UserID: "u2", CurrentVersionID: "vx", CreatedAt: base}
	require.NoError(t, s.CreateProject(ctx, other, domain.NewVersion("vx", "px", "u2", base)))

	list, err := s.ListProjects(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"p2", "p1", "p0"}, []string{list[0].ID, list[1].ID, list[2].ID})

	v, err := s.GetVersion(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageStrategy, v.Stage)
	assert.Equal(t, "p1", v.ProjectID)

	_, err = s.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateVersion(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, s.CreateProject(ctx, &domain.Project{ID: "p", UserID: "u", CurrentVersionID: "v", CreatedAt: now}, domain.NewVersion("v", "p", "u", now)))

	updated, err := s.UpdateVersion(ctx, "v", func(v *domain.Version) error {
		v.ApplyStageResult(domain.StageStrategy, map[string]any{"niche": "coffee"}, now)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageBrand, updated.Stage)

	got, err := s.GetVersion(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, domain.StageBrand, got.Stage)
	assert.Equal(t, "coffee", got.Results["blueprint"]["niche"])

	boom := errors.New("rejected")
	_, err = s.UpdateVersion(ctx, "v", func(v *domain.Version) error {
		v.Stage = domain.StageComplete
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ = s.GetVersion(ctx, "v")
	assert.Equal(t, domain.StageBrand, got.Stage)

	same, err := s.UpdateVersion(ctx, "v", func(*domain.Version) error { return storage.ErrNoChange })
	require.NoError(t, err)
	assert.Equal(t, domain.StageBrand, same.Stage)

	_, err = s.UpdateVersion(ctx, "nope", func(*domain.Version) error { return nil })
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateVersionConcurrentWriters(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.CreateProject(ctx, &domain.Project{ID: "p", UserID: "u", CurrentVersionID: "v", CreatedAt: now}, domain.NewVersion("v", "p", "u", now)))

	var wg sync.WaitGroup
	stages := []domain.Stage{domain.StageStrategy, domain.StageBrand, domain.StageStructure, domain.StageAssets}
	for _, st := range stages {
		wg.Add(1)
		go func(st domain.Stage) {
			defer wg.Done()
			_, err := s.UpdateVersion(ctx, "v", func(v *domain.Version) error {
				v.ApplyStageResult(st, map[string]any{"from": string(st)}, time.Now())
				return nil
			})
			assert.NoError(t, err)
		}(st)
	}
	wg.Wait()

	got, err := s.GetVersion(ctx, "v")
	require.NoError(t, err)
	assert.Len(t, got.Results, len(stages))
	assert.Equal(t, domain.StageAgent, got.Stage)
}

func TestAppendLedgerEntryAdjustsBalance(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	seedUser(t, s, "u1", 10000)

	for i, total := range []int64{1800, 700} {
		require.NoError(t, s.AppendLedgerEntry(ctx, &ledger.Entry{
			ID: fmt.Sprintf("e%d", i), UserID: "u1", TotalTokens: total, ChargedTokens: total,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000-2500), u.TokensRemaining)
	assert.Equal(t, int64(2500), u.TokensUsed)

	entries, err := s.ListLedgerEntries(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e1", entries[0].ID)

	err = s.AppendLedgerEntry(ctx, &ledger.Entry{ID: "e9", UserID: "ghost", TotalTokens: 1})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserSync(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	seedUser(t, s, "u1", 10000)

	err := s.CreateUser(ctx, &authdomain.User{ID: "u1"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	login := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.TouchUser(ctx, "u1", authdomain.ProfileUpdate{Email: "new@example.com", Name: "New", Role: authdomain.RoleAdmin, LastLogin: login}))
	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, authdomain.RoleAdmin, u.Role)
	assert.Equal(t, int64(10000), u.TokensRemaining)
	assert.True(t, login.Equal(u.LastLogin))

	assert.ErrorIs(t, s.TouchUser(ctx, "ghost", authdomain.ProfileUpdate{}), storage.ErrNotFound)
	_, err = s.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SetUserStatus(ctx, "u1", authdomain.StatusDisabled))
	u, err = s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.Disabled())
	assert.Equal(t, int64(10000), u.TokensRemaining)
	assert.ErrorIs(t, s.SetUserStatus(ctx, "ghost", authdomain.StatusActive), storage.ErrNotFound)
}

func TestDeploymentActiveSet(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	for _, id := range []string{"b1", "b2"} {
		require.NoError(t, s.CreateDeployment(ctx, &deploydomain.Deployment{BuildID: id, UserID: "u", Status: deploydomain.StatusWorking}))
	}

	active, err := s.ListActiveDeployments(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = s.UpdateDeployment(ctx, "b1", func(d *deploydomain.Deployment) error {
		d.Status = deploydomain.StatusSuccess
		return nil
	})
	require.NoError(t, err)

	active, err = s.ListActiveDeployments(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b2", active[0].BuildID)

	got, err := s.GetDeployment(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, deploydomain.StatusSuccess, got.Status)
}

func TestWorkspaces(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, s.CreateWorkspace(ctx, &domain.Workspace{ID: "w1", UserID: "u", Name: "Default", CreatedAt: time.Now()}))

	w, err := s.GetWorkspace(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "u", w.OwnerID())

	list, err := s.ListWorkspaces(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.ListWorkspaces(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, list)
}
