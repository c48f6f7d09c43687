package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/api/http/respond"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
)

func (h *Handler) deploy(c *gin.Context) {
	d, err := h.tracker.Submit(c.Request.Context(), c.Param("id"), auth.UserFirebaseUID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "buildId": d.BuildID, "deployment": d})
}

func (h *Handler) status(c *gin.Context) {
	res, err := h.tracker.RefreshStatus(c.Request.Context(), c.Param("build_id"), auth.UserFirebaseUID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"status":     res.Record.Status,
		"stale":      res.Stale,
		"deployment": res.Record,
	})
}
