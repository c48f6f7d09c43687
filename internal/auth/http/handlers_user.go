package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/api/http/respond"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
)

// GetProfile returns the current user's profile and token balances
func (h *Handler) GetProfile(c *gin.Context) {
	if user, ok := auth.CurrentUser(c); ok {
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// GetUsage lists the caller's ledger entries, newest first
func (h *Handler) GetUsage(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.accountant.History(c.Request.Context(), auth.UserFirebaseUID(c), limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}
