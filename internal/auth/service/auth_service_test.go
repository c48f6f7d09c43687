package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

type memoryUsers struct {
	mu      sync.Mutex
	users   map[string]domain.User
	touches int
}

func newMemoryUsers() *memoryUsers { return &memoryUsers{users: map[string]domain.User{}} }

func (m *memoryUsers) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return storage.ErrAlreadyExists
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memoryUsers) TouchUser(_ context.Context, id string, p domain.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Email, u.Name, u.Picture, u.Role, u.LastLogin = p.Email, p.Name, p.Picture, p.Role, p.LastLogin
	m.users[id] = u
	m.touches++
	return nil
}

func TestSyncUserCreatesOnFirstSignIn(t *testing.T) {
	store := newMemoryUsers()
	svc := NewAuthService(store, []string{" Root@Example.com "})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	u, err := svc.SyncUser(context.Background(), &auth.Identity{CallerID: "u1", Email: "root@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, domain.DefaultPlan, u.Plan)
	assert.Equal(t, int64(domain.DefaultTokenGrant), u.TokensRemaining)
	assert.Equal(t, fixed, u.CreatedAt)

	plain, err := svc.SyncUser(context.Background(), &auth.Identity{CallerID: "u2", Email: "someone@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, plain.Role)
}

func TestSyncUserRefreshesProfileKeepsBalances(t *testing.T) {
	store := newMemoryUsers()
	store.users["u1"] = domain.User{
		ID: "u1", Email: "old@example.com", Name: "Old", Role: domain.RoleUser,
		Status: domain.StatusActive, TokensRemaining: 42, TokensUsed: 8,
	}
	svc := NewAuthService(store, nil)

	u, err := svc.SyncUser(context.Background(), &auth.Identity{CallerID: "u1", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "old@example.com", u.Email)
	assert.Equal(t, int64(42), u.TokensRemaining)
	assert.Equal(t, 1, store.touches)

	stored, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), stored.TokensUsed)
}

func TestSyncUserRejectsDisabled(t *testing.T) {
	store := newMemoryUsers()
	store.users["u1"] = domain.User{ID: "u1", Status: domain.StatusDisabled}

	_, err := NewAuthService(store, nil).SyncUser(context.Background(), &auth.Identity{CallerID: "u1"})
	assert.ErrorIs(t, err, domain.ErrUserDisabled)
	assert.Zero(t, store.touches)
}

func TestGetUserNotFound(t *testing.T) {
	_, err := NewAuthService(newMemoryUsers(), nil).GetUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
