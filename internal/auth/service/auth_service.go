package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	TouchUser(ctx context.Context, id string, p domain.ProfileUpdate) error
}

type AuthService struct {
	users  UserStore
	admins map[string]struct{}
	now    func() time.Time
}

func NewAuthService(users UserStore, adminEmails []string) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AuthService{users: users, admins: admins, now: time.Now}
}

func (s *AuthService) isAdminEmail(email string) bool {
	_, ok := s.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// SyncUser creates the user on first sign-in and refreshes the profile on
// later ones. Disabled users get ErrUserDisabled.
func (s *AuthService) SyncUser(ctx context.Context, id *auth.Identity) (*domain.User, error) {
	now := s.now().UTC()

	existing, err := s.users.GetUser(ctx, id.CallerID)
	switch {
	case err == nil:
		if existing.Disabled() {
			return nil, domain.ErrUserDisabled
		}
		role := existing.Role
		if s.isAdminEmail(id.Email) {
			role = domain.RoleAdmin
		}
		update := domain.ProfileUpdate{
			Email:     firstNonEmpty(id.Email, existing.Email),
			Name:      firstNonEmpty(id.Name, existing.Name),
			Picture:   firstNonEmpty(id.Picture, existing.Picture),
			Role:      role,
			LastLogin: now,
		}
		if err := s.users.TouchUser(ctx, id.CallerID, update); err != nil {
			return nil, fmt.Errorf("update user %s: %w", id.CallerID, err)
		}
		existing.Email, existing.Name, existing.Picture = update.Email, update.Name, update.Picture
		existing.Role, existing.LastLogin = update.Role, now
		return existing, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load user %s: %w", id.CallerID, err)
	}

	user := &domain.User{
		ID:              id.CallerID,
		Email:           id.Email,
		Name:            id.Name,
		Picture:         id.Picture,
		Role:            domain.RoleUser,
		Plan:            domain.DefaultPlan,
		Status:          domain.StatusActive,
		TokensRemaining: domain.DefaultTokenGrant,
		CreatedAt:       now,
		LastLogin:       now,
	}
	if s.isAdminEmail(id.Email) {
		user.Role = domain.RoleAdmin
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// concurrent first sign-in
			return s.GetUser(ctx, id.CallerID)
		}
		return nil, fmt.Errorf("create user %s: %w", id.CallerID, err)
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
