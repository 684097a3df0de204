package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/familymenu/nutrition-ai/internal/auth"
	"github.com/familymenu/nutrition-ai/internal/common"
)

type tokenReq struct {
	Password string `json:"password" binding:"required"`
}

// Token exchanges the operator password for a bearer token used on the
// guarded reconciliation endpoints.
func (h *Handler) Token(c *gin.Context) {
	if h.Cfg.SyncPasswordHash == "" {
		common.Fail(c, http.StatusServiceUnavailable, "operator auth is not configured")
		return
	}

	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "password is required")
		return
	}
	if !auth.CheckPassword(h.Cfg.SyncPasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.SignJWT("operator", h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "failed to sign token")
		return
	}
	common.OK(c, gin.H{"token": token})
}
