package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

// ProjectService handles workspaces, projects and version reads
type ProjectService struct {
	guard      *ownership.Guard
	projects   ProjectStore
	workspaces WorkspaceStore
	now        func() time.Time
	newID      func() string
}

func NewProjectService(guard *ownership.Guard, projects ProjectStore, workspaces WorkspaceStore) *ProjectService {
	return &ProjectService{
		guard:      guard,
		projects:   projects,
		workspaces: workspaces,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func (s *ProjectService) CreateWorkspace(ctx context.Context, callerID, name string) (*domain.Workspace, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ownership.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "My Workspace"
	}
	w := &domain.Workspace{ID: s.newID(), UserID: callerID, Name: name, CreatedAt: s.now().UTC()}
	if err := s.workspaces.CreateWorkspace(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *ProjectService) ListWorkspaces(ctx context.Context, callerID string) ([]domain.Workspace, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ownership.ErrUnauthorized
	}
	return s.workspaces.ListWorkspaces(ctx, callerID)
}

// Create writes a project and its first version, at STRATEGY, in one
// atomic write. The workspace must belong to the caller.
func (s *ProjectService) Create(ctx context.Context, callerID, workspaceID, idea string) (*domain.Project, *domain.Version, error) {
	if _, err := s.guard.Authorize(ctx, callerID, ownership.KindWorkspace, workspaceID); err != nil {
		return nil, nil, err
	}
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, nil, domain.ErrInvalidIdea
	}

	now := s.now().UTC()
	p := &domain.Project{
		ID:          s.newID(),
		UserID:      callerID,
		WorkspaceID: workspaceID,
		Idea:        idea,
		CreatedAt:   now,
	}
	v := domain.NewVersion(s.newID(), p.ID, callerID, now)
	p.CurrentVersionID = v.ID

	if err := s.projects.CreateProject(ctx, p, v); err != nil {
		return nil, nil, err
	}
	return p, v, nil
}

// List returns the caller's projects, newest first
func (s *ProjectService) List(ctx context.Context, callerID string) ([]domain.Project, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ownership.ErrUnauthorized
	}
	return s.projects.ListProjects(ctx, callerID)
}

func (s *ProjectService) GetProject(ctx context.Context, projectID, callerID string) (*domain.Project, error) {
	return ownership.AuthorizeAs[*domain.Project](ctx, s.guard, callerID, ownership.KindProject, projectID)
}

func (s *ProjectService) GetVersion(ctx context.Context, versionID, callerID string) (*domain.Version, error) {
	return ownership.AuthorizeAs[*domain.Version](ctx, s.guard, callerID, ownership.KindVersion, versionID)
}
