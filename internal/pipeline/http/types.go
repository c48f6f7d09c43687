package http

import "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/service"

// Handler bundles the dependencies for workspace, project and version endpoints.
type Handler struct {
	projects     *service.ProjectService
	orchestrator *service.Orchestrator
}

func New(projects *service.ProjectService, orchestrator *service.Orchestrator) *Handler {
	return &Handler{projects: projects, orchestrator: orchestrator}
}

type createWorkspaceReq struct {
	Name string `json:"name"`
}

type createProjectReq struct {
	WorkspaceID string `json:"workspaceId" binding:"required"`
	Idea        string `json:"idea" binding:"required"`
}

type advanceReq struct {
	Stage   string         `json:"stage"`
	Context map[string]any `json:"context"`
}
