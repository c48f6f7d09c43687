package service

import (
	"context"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/generation"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

type VersionStore interface {
	GetVersion(ctx context.Context, id string) (*domain.Version, error)
	UpdateVersion(ctx context.Context, id string, fn func(*domain.Version) error) (*domain.Version, error)
}

type ProjectStore interface {
	CreateProject(ctx context.Context, p *domain.Project, v *domain.Version) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)
}

type WorkspaceStore interface {
	CreateWorkspace(ctx context.Context, w *domain.Workspace) error
	GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error)
	ListWorkspaces(ctx context.Context, userID string) ([]domain.Workspace, error)
}

type StageExecutor interface {
	Execute(ctx context.Context, stage domain.Stage, stageCtx map[string]any, tier domain.Tier) (*generation.Result, error)
}

type UsageRecorder interface {
	Record(ctx context.Context, u ledger.Usage) (*ledger.Entry, error)
}
