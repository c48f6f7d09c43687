package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/api/http/respond"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/artifacts"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
)

// DefaultMaxBodyBytes matches the largest bundle the web client uploads.
const DefaultMaxBodyBytes int64 = 50 << 20

type Handler struct {
	files    *artifacts.Service
	maxBytes int64
}

func New(files *artifacts.Service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return &Handler{files: files, maxBytes: maxBytes}
}

type persistReq struct {
	Source *artifacts.Tree `json:"source"`
	Dist   *artifacts.Tree `json:"dist"`
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/versions/:id/files", h.persist)
}

func (h *Handler) persist(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	var req persistReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid body")
		return
	}
	n, err := h.files.PersistFiles(c.Request.Context(), c.Param("id"), auth.UserFirebaseUID(c), req.Source, req.Dist)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "files": n})
}
