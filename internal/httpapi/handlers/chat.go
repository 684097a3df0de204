package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/familymenu/nutrition-ai/internal/chat"
	"github.com/familymenu/nutrition-ai/internal/common"
)

func (h *Handler) Root(c *gin.Context) {
	common.OK(c, gin.H{
		"message": "Welcome to Family Menu Suggestion System API",
		"status":  "operational",
	})
}

func (h *Handler) Health(c *gin.Context) {
	common.OK(c, gin.H{"status": "healthy"})
}

type newSessionReq struct {
	UserID uint64 `json:"user_id"`
}

func (h *Handler) NewSession(c *gin.Context) {
	var req newSessionReq
	_ = c.ShouldBindJSON(&req) // allow empty body

	sessionID, err := h.ChatSvc.CreateSession(c.Request.Context(), req.UserID)
	if err != nil {
		log.Printf("[NewSession] create failed user_id=%d err=%v", req.UserID, err)
		common.Fail(c, http.StatusInternalServerError, "Error creating new session: "+err.Error())
		return
	}

	common.OK(c, gin.H{
		"session_id": sessionID,
		"message":    "New session created successfully",
	})
}

type queryReq struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
	UserID    uint64 `json:"user_id"`
}

func (h *Handler) Query(c *gin.Context) {
	var req queryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "question is required")
		return
	}

	start := time.Now()
	answer, sessionID, err := h.ChatSvc.Ask(c.Request.Context(), req.UserID, req.SessionID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrNotSessionOwner):
			common.Fail(c, http.StatusForbidden, "Not authorized to access this chat session")
		case errors.Is(err, chat.ErrSessionNotFound):
			common.Fail(c, http.StatusNotFound, "Session "+req.SessionID+" not found")
		case errors.Is(err, chat.ErrQuotaExceeded):
			common.Fail(c, http.StatusTooManyRequests,
				"Giới hạn 30 câu hỏi mỗi phiên đã đạt. Vui lòng bắt đầu phiên mới.")
		default:
			log.Printf("[Query] failed session_id=%s err=%v", sessionID, err)
			common.Fail(c, http.StatusInternalServerError,
				"An error occurred while processing your request: "+err.Error())
		}
		return
	}

	common.OK(c, gin.H{
		"answer":          answer,
		"session_id":      sessionID,
		"processing_time": time.Since(start).Seconds(),
	})
}

func (h *Handler) SyncNow(c *gin.Context) {
	n, err := h.Reconciler.SyncNow(c.Request.Context())
	if err != nil {
		log.Printf("[SyncNow] failed err=%v", err)
		common.Fail(c, http.StatusInternalServerError, "Error synchronizing data: "+err.Error())
		return
	}

	common.OK(c, gin.H{
		"synced":  n,
		"message": "Synchronized successfully",
	})
}

func (h *Handler) ChatHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	sess, err := h.ChatRepo.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "Session "+sessionID+" not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, "An error occurred while fetching chat history: "+err.Error())
		return
	}

	msgs, err := h.ChatRepo.ListMessagesDesc(c.Request.Context(), sessionID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "An error occurred while fetching chat history: "+err.Error())
		return
	}

	formatted := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		formatted = append(formatted, gin.H{
			"question":  m.Question,
			"answer":    m.Answer,
			"timestamp": m.Timestamp,
		})
	}

	// turns not yet reconciled only exist in the cache window
	if len(formatted) == 0 {
		entries, err := h.Cache.History(c.Request.Context(), sessionID)
		if err != nil {
			log.Printf("[ChatHistory] cache fallback session_id=%s err=%v", sessionID, err)
		}
		for _, entry := range entries {
			parts := strings.SplitN(entry, "\nAI: ", 2)
			if len(parts) != 2 {
				continue
			}
			formatted = append(formatted, gin.H{
				"question": strings.TrimPrefix(parts[0], "User: "),
				"answer":   parts[1],
			})
		}
	}

	common.OK(c, gin.H{
		"session_id":     sessionID,
		"messages":       formatted,
		"question_count": sess.QuestionCount,
	})
}
