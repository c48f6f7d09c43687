package http

import "github.com/gin-gonic/gin"

// Register attaches pipeline routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/workspaces", h.listWorkspaces)
	rg.POST("/workspaces", h.createWorkspace)

	rg.POST("/projects", h.createProject)
	rg.GET("/projects", h.listProjects)
	rg.GET("/projects/:id", h.getProject)

	rg.GET("/versions/:id", h.getVersion)
	rg.POST("/versions/:id/advance", h.advance)
	rg.POST("/versions/:id/run", h.run)
}
