package firestoredb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authdomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil, "x"))
	assert.ErrorIs(t, mapErr(status.Error(codes.NotFound, "gone"), "versions/v1"), storage.ErrNotFound)
	assert.ErrorIs(t, mapErr(status.Error(codes.AlreadyExists, "dup"), "users/u1"), storage.ErrAlreadyExists)
	assert.ErrorIs(t, mapErr(status.Error(codes.Aborted, "contention"), "versions/v1"), storage.ErrConflict)

	other := errors.New("deadline")
	err := mapErr(other, "q")
	assert.ErrorIs(t, err, other)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}

// setupEmulator skips unless FIRESTORE_EMULATOR_HOST is set.
func setupEmulator(t *testing.T) *Store {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping Firestore integration test")
	}
	client, err := firestore.NewClient(context.Background(), "dgbp-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestEmulatorVersionAndLedger(t *testing.T) {
	s := setupEmulator(t)
	ctx := context.Background()
	now := time.Now().UTC()
	uid := "u-" + uuid.NewString()

	require.NoError(t, s.CreateUser(ctx, &authdomain.User{ID: uid, Status: authdomain.StatusActive, TokensRemaining: 10000, CreatedAt: now}))

	p := &domain.Project{ID: uuid.NewString(), UserID: uid, Idea: "coffee subscription", CreatedAt: now}
	v := domain.NewVersion(uuid.NewString(), p.ID, uid, now)
	p.CurrentVersionID = v.ID
	require.NoError(t, s.CreateProject(ctx, p, v))

	updated, err := s.UpdateVersion(ctx, v.ID, func(v *domain.Version) error {
		v.ApplyStageResult(domain.StageStrategy, map[string]any{"niche": "coffee"}, now)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageBrand, updated.Stage)

	require.NoError(t, s.AppendLedgerEntry(ctx, &ledger.Entry{ID: uuid.NewString(), UserID: uid, TotalTokens: 1800, CreatedAt: now}))
	u, err := s.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(8200), u.TokensRemaining)
	assert.Equal(t, int64(1800), u.TokensUsed)

	require.NoError(t, s.SetUserStatus(ctx, uid, authdomain.StatusDisabled))
	u, err = s.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.True(t, u.Disabled())
	assert.ErrorIs(t, s.SetUserStatus(ctx, "missing-"+uuid.NewString(), authdomain.StatusActive), storage.ErrNotFound)

	_, err = s.GetVersion(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
