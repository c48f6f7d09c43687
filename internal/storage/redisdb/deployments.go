package redisdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
)

func (s *Store) CreateDeployment(ctx context.Context, d *domain.Deployment) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal deployment: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, deploymentKeyPrefix+d.BuildID, data, 0)
		if !d.Status.IsTerminal() {
			pipe.SAdd(ctx, activeDeploymentSet, d.BuildID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create deployment: %w", err)
	}
	return nil
}

func (s *Store) GetDeployment(ctx context.Context, buildID string) (*domain.Deployment, error) {
	return getJSON[domain.Deployment](ctx, s.client, deploymentKeyPrefix+buildID)
}

// UpdateDeployment drops the record from the active set in the same
// transaction that writes a terminal status.
func (s *Store) UpdateDeployment(ctx context.Context, buildID string, fn func(*domain.Deployment) error) (*domain.Deployment, error) {
	return updateJSON(ctx, s, deploymentKeyPrefix+buildID, fn, func(pipe redis.Pipeliner, d *domain.Deployment) {
		if d.Status.IsTerminal() {
			pipe.SRem(ctx, activeDeploymentSet, d.BuildID)
		}
	})
}

// ListActiveDeployments returns up to limit records that have not reached
// a terminal status.
func (s *Store) ListActiveDeployments(ctx context.Context, limit int) ([]domain.Deployment, error) {
	ids, err := sortedMembers(ctx, s.client, activeDeploymentSet)
	if err != nil {
		return nil, fmt.Errorf("failed to read active deployments: %w", err)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = deploymentKeyPrefix + id
	}
	all, err := mgetJSON[domain.Deployment](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if !d.Status.IsTerminal() {
			out = append(out, d)
		}
	}
	return out, nil
}
