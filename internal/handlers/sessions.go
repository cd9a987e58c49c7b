package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zeroscroll/zeroscroll/internal/models"
	"github.com/zeroscroll/zeroscroll/internal/utils"
)

type SessionHandler struct {
	DB *gorm.DB
}

type StartSessionRequest struct {
	SessionType     string   `json:"session_type" binding:"required"`
	PlannedDuration *float64 `json:"planned_duration" binding:"required"`
}

// StopSessionRequest carries the client-reported outcome of a session.
// The server does not compute the elapsed time from wall clocks:
// pause/resume happens client side, so the client reports the actual
// focused minutes. All three fields are required.
type StopSessionRequest struct {
	ActualDuration    *float64 `json:"actual_duration" binding:"required"`
	Completed         *bool    `json:"completed" binding:"required"`
	CountsTowardStats *bool    `json:"counts_toward_stats" binding:"required"`
}

func (h *SessionHandler) StartSession(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body StartSessionRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Session type and planned duration are required"})
		return
	}

	if !models.ValidSessionType(body.SessionType) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Session type must be FOCUS, BREAK or RECOVER"})
		return
	}

	if *body.PlannedDuration <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Planned duration must be positive"})
		return
	}

	session := models.Session{
		UserID:          userID,
		SessionType:     body.SessionType,
		PlannedDuration: *body.PlannedDuration,
		StartTime:       time.Now().UTC(),
	}

	if err := h.DB.Create(&session).Error; err != nil {
		log.Printf("Failed to create session: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Session started", "session": session})
}

func (h *SessionHandler) ListSessions(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var sessions []models.Session

	if err := h.DB.Where("user_id = ?", userID).Order("start_time DESC").Find(&sessions).Error; err != nil {
		log.Printf("Failed to list sessions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Sessions returned successfully", "sessions": sessions})
}

func (h *SessionHandler) GetSession(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var session models.Session

	if err := h.DB.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			log.Printf("Failed to fetch session: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Session returned successfully", "session": session})
}

// StopSession freezes a session's outcome. The start -> stop transition
// happens at most once; the guard is a conditional update on
// end_time IS NULL rather than a lock, because several server instances
// may race on the same session.
func (h *SessionHandler) StopSession(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body StopSessionRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Actual duration, completed and counts_toward_stats are required"})
		return
	}

	var session models.Session

	if err := h.DB.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			log.Printf("Failed to fetch session: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	if session.Stopped() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Session already completed"})
		return
	}

	now := time.Now().UTC()

	result := h.DB.Model(&models.Session{}).
		Where("id = ? AND user_id = ? AND end_time IS NULL", session.ID, userID).
		Updates(map[string]interface{}{
			"end_time":            now,
			"actual_duration":     *body.ActualDuration,
			"completed":           *body.Completed,
			"counts_toward_stats": *body.CountsTowardStats,
		})

	if result.Error != nil {
		log.Printf("Failed to stop session: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	// Zero rows means a concurrent stop won the conditional update.
	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Session already completed"})
		return
	}

	session.EndTime = &now
	session.ActualDuration = body.ActualDuration
	session.Completed = *body.Completed
	session.CountsTowardStats = *body.CountsTowardStats

	ctx.JSON(http.StatusOK, gin.H{"message": "Session completed successfully", "session": session})
}

func (h *SessionHandler) DeleteSession(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result := h.DB.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).Delete(&models.Session{})

	if result.Error != nil {
		log.Printf("Failed to delete session: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

// TodaySessions lists sessions that ended today, earliest first.
func (h *SessionHandler) TodaySessions(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	start, end := todayBounds()

	var sessions []models.Session

	err = h.DB.
		Where("user_id = ? AND end_time >= ? AND end_time < ?", userID, start, end).
		Order("start_time ASC").
		Find(&sessions).Error

	if err != nil {
		log.Printf("Failed to list today's sessions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Today's sessions returned successfully", "sessions": sessions})
}
