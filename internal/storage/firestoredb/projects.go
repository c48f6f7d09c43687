package firestoredb

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

func (s *Store) CreateWorkspace(ctx context.Context, w *domain.Workspace) error {
	ref := s.client.Collection(colWorkspaces).Doc(w.ID)
	if _, err := ref.Create(ctx, w); err != nil {
		return mapErr(err, ref.Path)
	}
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	return get[domain.Workspace](ctx, s.client.Collection(colWorkspaces).Doc(id))
}

func (s *Store) ListWorkspaces(ctx context.Context, userID string) ([]domain.Workspace, error) {
	q := s.client.Collection(colWorkspaces).Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc)
	return all[domain.Workspace](ctx, q)
}

// CreateProject writes the project and its first version in one transaction.
func (s *Store) CreateProject(ctx context.Context, p *domain.Project, v *domain.Version) error {
	pref := s.client.Collection(colProjects).Doc(p.ID)
	vref := s.client.Collection(colVersions).Doc(v.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(pref, p); err != nil {
			return err
		}
		return tx.Create(vref, v)
	})
	if err != nil {
		return mapErr(err, fmt.Sprintf("create project %s", p.ID))
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return get[domain.Project](ctx, s.client.Collection(colProjects).Doc(id))
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	q := s.client.Collection(colProjects).Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc)
	return all[domain.Project](ctx, q)
}

func (s *Store) GetVersion(ctx context.Context, id string) (*domain.Version, error) {
	return get[domain.Version](ctx, s.client.Collection(colVersions).Doc(id))
}

func (s *Store) UpdateVersion(ctx context.Context, id string, fn func(*domain.Version) error) (*domain.Version, error) {
	return update(ctx, s, s.client.Collection(colVersions).Doc(id), fn)
}
