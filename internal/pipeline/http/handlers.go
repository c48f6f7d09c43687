package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/api/http/respond"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/service"
)

func (h *Handler) createWorkspace(c *gin.Context) {
	var req createWorkspaceReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "invalid body")
			return
		}
	}
	w, err := h.projects.CreateWorkspace(c.Request.Context(), auth.UserFirebaseUID(c), req.Name)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "workspace": w})
}

func (h *Handler) listWorkspaces(c *gin.Context) {
	items, err := h.projects.ListWorkspaces(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "workspaces": items})
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid body")
		return
	}
	p, v, err := h.projects.Create(c.Request.Context(), auth.UserFirebaseUID(c), req.WorkspaceID, req.Idea)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p, "version": v})
}

func (h *Handler) listProjects(c *gin.Context) {
	items, err := h.projects.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) getProject(c *gin.Context) {
	p, err := h.projects.GetProject(c.Request.Context(), c.Param("id"), auth.UserFirebaseUID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) getVersion(c *gin.Context) {
	v, err := h.projects.GetVersion(c.Request.Context(), c.Param("id"), auth.UserFirebaseUID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": v})
}

func (h *Handler) advance(c *gin.Context) {
	var req advanceReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "invalid body")
			return
		}
	}

	ar := service.AdvanceRequest{Hints: req.Context}
	if req.Stage != "" {
		stage, err := domain.ParseStage(req.Stage)
		if err != nil {
			respond.Error(c, err)
			return
		}
		ar.Stage = stage
	}

	res, err := h.orchestrator.Advance(c.Request.Context(), c.Param("id"), auth.UserFirebaseUID(c), ar)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, advanceBody(res))
}

func (h *Handler) run(c *gin.Context) {
	res, err := h.orchestrator.Run(c.Request.Context(), c.Param("id"), auth.UserFirebaseUID(c))
	if err != nil {
		// steps completed before the failure are already persisted
		var extra gin.H
		if res != nil && len(res.Steps) > 0 {
			extra = gin.H{"steps": res.Steps, "version": res.Version}
		}
		respond.ErrorWith(c, err, extra)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "steps": res.Steps, "version": res.Version})
}

func advanceBody(res *service.AdvanceResult) gin.H {
	body := gin.H{
		"ok":       true,
		"outcome":  res.Outcome,
		"stage":    res.Stage,
		"payload":  res.Payload,
		"attempts": res.Attempts,
		"version":  res.Version,
	}
	if res.Validation != nil {
		body["validation"] = res.Validation
	}
	if res.Outcome == service.OutcomeHalted {
		body["reason"] = "did not validate"
	}
	return body
}
