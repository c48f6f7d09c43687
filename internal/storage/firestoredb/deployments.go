package firestoredb

import (
	"context"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
)

func (s *Store) CreateDeployment(ctx context.Context, d *domain.Deployment) error {
	ref := s.client.Collection(colDeployments).Doc(d.BuildID)
	if _, err := ref.Create(ctx, d); err != nil {
		return mapErr(err, ref.Path)
	}
	return nil
}

func (s *Store) GetDeployment(ctx context.Context, buildID string) (*domain.Deployment, error) {
	return get[domain.Deployment](ctx, s.client.Collection(colDeployments).Doc(buildID))
}

func (s *Store) UpdateDeployment(ctx context.Context, buildID string, fn func(*domain.Deployment) error) (*domain.Deployment, error) {
	return update(ctx, s, s.client.Collection(colDeployments).Doc(buildID), fn)
}

func (s *Store) ListActiveDeployments(ctx context.Context, limit int) ([]domain.Deployment, error) {
	q := s.client.Collection(colDeployments).
		Where("status", "in", []string{string(domain.StatusQueued), string(domain.StatusWorking)})
	if limit > 0 {
		q = q.Limit(limit)
	}
	return all[domain.Deployment](ctx, q)
}
