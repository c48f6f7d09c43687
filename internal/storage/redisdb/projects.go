package redisdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

func (s *Store) CreateWorkspace(ctx context.Context, w *domain.Workspace) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, workspaceKeyPrefix+w.ID, data, 0)
		pipe.ZAdd(ctx, userIndexKey(w.UserID, "workspaces"), redis.Z{Score: float64(w.CreatedAt.UnixMicro()), Member: w.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	return getJSON[domain.Workspace](ctx, s.client, workspaceKeyPrefix+id)
}

func (s *Store) ListWorkspaces(ctx context.Context, userID string) ([]domain.Workspace, error) {
	return listIndex[domain.Workspace](ctx, s.client, userIndexKey(userID, "workspaces"), workspaceKeyPrefix, 0)
}

// CreateProject writes the project, its first version and the owner index
// in a single MULTI/EXEC.
func (s *Store) CreateProject(ctx context.Context, p *domain.Project, v *domain.Version) error {
	pdata, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	vdata, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal version: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, projectKeyPrefix+p.ID, pdata, 0)
		pipe.Set(ctx, versionKeyPrefix+v.ID, vdata, 0)
		pipe.ZAdd(ctx, userIndexKey(p.UserID, "projects"), redis.Z{Score: float64(p.CreatedAt.UnixMicro()), Member: p.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return getJSON[domain.Project](ctx, s.client, projectKeyPrefix+id)
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	return listIndex[domain.Project](ctx, s.client, userIndexKey(userID, "projects"), projectKeyPrefix, 0)
}

func (s *Store) GetVersion(ctx context.Context, id string) (*domain.Version, error) {
	return getJSON[domain.Version](ctx, s.client, versionKeyPrefix+id)
}

func (s *Store) UpdateVersion(ctx context.Context, id string, fn func(*domain.Version) error) (*domain.Version, error) {
	return updateJSON(ctx, s, versionKeyPrefix+id, fn, nil)
}
