package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/familymenu/nutrition-ai/internal/common"
	"github.com/familymenu/nutrition-ai/internal/httpapi/handlers"
	"github.com/familymenu/nutrition-ai/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/new_session", h.NewSession)
	r.POST("/query", h.Query)
	r.GET("/chat-history/:session_id", h.ChatHistory)

	r.POST("/nutrition/meal-suggestion", h.MealSuggestion)
	r.POST("/nutrition/meal-suggestion/async", h.MealSuggestionAsync)
	r.GET("/nutrition/jobs/:job_id", h.GetMealJob)
	r.GET("/meal-history/:user_id", h.MealHistory)

	r.POST("/auth/token", h.Token)

	// /sync_now stays open when no operator credential is configured,
	// matching the original deployment
	if h.Cfg.SyncPasswordHash != "" {
		ops := r.Group("/")
		ops.Use(middleware.AuthRequired(h.Cfg.JWTSecret))
		ops.GET("/sync_now", h.SyncNow)
	} else {
		r.GET("/sync_now", h.SyncNow)
	}

	return r
}
