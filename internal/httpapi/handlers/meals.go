package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/familymenu/nutrition-ai/internal/chat"
	"github.com/familymenu/nutrition-ai/internal/common"
	"github.com/familymenu/nutrition-ai/internal/meals"
	"github.com/familymenu/nutrition-ai/internal/rag"
	"github.com/familymenu/nutrition-ai/internal/store/rabbitmq"
)

func (h *Handler) MealSuggestion(c *gin.Context) {
	var req meals.SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	start := time.Now()
	result, _, err := h.MealSvc.Suggest(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrNotSessionOwner):
			common.Fail(c, http.StatusForbidden, "Not authorized to access this chat session")
		case errors.Is(err, chat.ErrSessionNotFound):
			common.Fail(c, http.StatusNotFound, "Session "+req.SessionID+" not found")
		case errors.Is(err, rag.ErrNoJSON):
			log.Printf("[MealSuggestion] unparseable model reply session_id=%s err=%v", req.SessionID, err)
			common.Fail(c, http.StatusInternalServerError, "The model returned an unparseable meal plan")
		default:
			log.Printf("[MealSuggestion] failed session_id=%s err=%v", req.SessionID, err)
			common.Fail(c, http.StatusInternalServerError,
				"An error occurred while processing your meal suggestion request: "+err.Error())
		}
		return
	}

	common.OK(c, gin.H{
		"session_id":      result.SessionID,
		"analysis":        result.Analysis,
		"suggestions":     result.Suggestions,
		"advice":          result.Advice,
		"processing_time": time.Since(start).Seconds(),
	})
}

func (h *Handler) MealSuggestionAsync(c *gin.Context) {
	var req meals.SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Fail(c, http.StatusBadRequest, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	job, created, err := h.MealSvc.Enqueue(c.Request.Context(), req, idempoKeyPtr)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrNotSessionOwner):
			common.Fail(c, http.StatusForbidden, "Not authorized to access this chat session")
		case errors.Is(err, chat.ErrSessionNotFound):
			common.Fail(c, http.StatusNotFound, "Session "+req.SessionID+" not found")
		default:
			log.Printf("[MealSuggestionAsync] enqueue failed user_id=%d err=%v", req.UserID, err)
			common.Fail(c, http.StatusInternalServerError, "internal error")
		}
		return
	}

	// enqueue only when a new job row was created
	if created {
		msg := rabbitmq.MealJobMessage{JobID: job.ID, SessionID: job.SessionID, UserID: job.UserID}
		if err := h.Rabbit.PublishJob(c.Request.Context(), msg); err != nil {
			log.Printf("[MealSuggestionAsync] publish failed job_id=%s err=%v", job.ID, err)
			common.Fail(c, http.StatusInternalServerError, "enqueue failed")
			return
		}
	}

	common.OK(c, gin.H{"job_id": job.ID, "session_id": job.SessionID})
}

func (h *Handler) GetMealJob(c *gin.Context) {
	jobID := c.Param("job_id")
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "user_id required")
		return
	}

	job, err := h.MealSvc.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	if job.UserID != userID {
		// hide existence
		common.Fail(c, http.StatusNotFound, "job not found")
		return
	}

	common.OK(c, gin.H{
		"job": gin.H{
			"id":                   job.ID,
			"session_id":           job.SessionID,
			"status":               job.Status,
			"result_suggestion_id": job.ResultSuggestionID,
			"error":                job.Error,
			"created_at":           job.CreatedAt,
			"updated_at":           job.UpdatedAt,
		},
	})
}

func (h *Handler) MealHistory(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid user id")
		return
	}

	suggestions, err := h.MealSvc.History(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "An error occurred while fetching meal history: "+err.Error())
		return
	}

	common.OK(c, gin.H{
		"user_id":     userID,
		"suggestions": suggestions,
	})
}
