package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
)

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return get[domain.User](ctx, s.client.Collection(colUsers).Doc(id))
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	ref := s.client.Collection(colUsers).Doc(u.ID)
	if _, err := ref.Create(ctx, u); err != nil {
		return mapErr(err, ref.Path)
	}
	return nil
}

func (s *Store) TouchUser(ctx context.Context, id string, p domain.ProfileUpdate) error {
	ref := s.client.Collection(colUsers).Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "email", Value: p.Email},
		{Path: "name", Value: p.Name},
		{Path: "picture", Value: p.Picture},
		{Path: "role", Value: p.Role},
		{Path: "lastLogin", Value: p.LastLogin},
	})
	return mapErr(err, ref.Path)
}

// SetUserStatus enables or disables an existing account.
func (s *Store) SetUserStatus(ctx context.Context, id, status string) error {
	ref := s.client.Collection(colUsers).Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{{Path: "status", Value: status}})
	return mapErr(err, ref.Path)
}
