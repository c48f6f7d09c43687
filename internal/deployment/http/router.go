package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/versions/:id/deploy", h.deploy)
	rg.GET("/deployments/:build_id", h.status)
}
