package redisdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

const (
	fieldTokensRemaining = "tokensRemaining"
	fieldTokensUsed      = "tokensUsed"
)

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	h, err := s.client.HGetAll(ctx, userKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("%w: user %s", storage.ErrNotFound, id)
	}
	return userFromHash(h)
}

// CreateUser fails with storage.ErrAlreadyExists if the hash exists.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	key := userKeyPrefix + u.ID
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: user %s", storage.ErrAlreadyExists, u.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, userToHash(u))
			return nil
		})
		return err
	}
	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: user %s", storage.ErrAlreadyExists, u.ID)
	}
	return err
}

// TouchUser writes the profile fields only, leaving balances untouched.
func (s *Store) TouchUser(ctx context.Context, id string, p domain.ProfileUpdate) error {
	key := userKeyPrefix + id
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s", storage.ErrNotFound, id)
	}
	return s.client.HSet(ctx, key, map[string]any{
		"email":     p.Email,
		"name":      p.Name,
		"picture":   p.Picture,
		"role":      p.Role,
		"lastLogin": p.LastLogin.Format(time.RFC3339Nano),
	}).Err()
}

// SetUserStatus enables or disables an existing account.
func (s *Store) SetUserStatus(ctx context.Context, id, status string) error {
	key := userKeyPrefix + id
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to set user status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s", storage.ErrNotFound, id)
	}
	return s.client.HSet(ctx, key, "status", status).Err()
}

func userToHash(u *domain.User) map[string]any {
	return map[string]any{
		"id":                 u.ID,
		"email":              u.Email,
		"name":               u.Name,
		"picture":            u.Picture,
		"role":               u.Role,
		"plan":               u.Plan,
		"status":             u.Status,
		fieldTokensRemaining: u.TokensRemaining,
		fieldTokensUsed:      u.TokensUsed,
		"createdAt":          u.CreatedAt.Format(time.RFC3339Nano),
		"lastLogin":          u.LastLogin.Format(time.RFC3339Nano),
	}
}

func userFromHash(h map[string]string) (*domain.User, error) {
	u := &domain.User{
		ID:      h["id"],
		Email:   h["email"],
		Name:    h["name"],
		Picture: h["picture"],
		Role:    h["role"],
		Plan:    h["plan"],
		Status:  h["status"],
	}
	var err error
	if u.TokensRemaining, err = parseInt(h[fieldTokensRemaining]); err != nil {
		return nil, fmt.Errorf("user %s %s: %w", u.ID, fieldTokensRemaining, err)
	}
	if u.TokensUsed, err = parseInt(h[fieldTokensUsed]); err != nil {
		return nil, fmt.Errorf("user %s %s: %w", u.ID, fieldTokensUsed, err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, h["createdAt"])
	u.LastLogin, _ = time.Parse(time.RFC3339Nano, h["lastLogin"])
	return u, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
