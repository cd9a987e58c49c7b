package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zeroscroll/zeroscroll/internal/analytics"
	"github.com/zeroscroll/zeroscroll/internal/models"
	"github.com/zeroscroll/zeroscroll/internal/utils"
)

type AnalyticsHandler struct {
	DB *gorm.DB
}

func parseDays(ctx *gin.Context) (int, bool) {
	days, err := strconv.Atoi(ctx.Param("days"))

	if err != nil || days < 1 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Days must be a positive whole number"})
		return 0, false
	}

	return days, true
}

// windowSessions loads the caller's sessions whose start time falls in
// the trailing window. qualifyingOnly narrows to counts_toward_stats.
func (h *AnalyticsHandler) windowSessions(userID uint, now time.Time, days int, qualifyingOnly bool) ([]models.Session, error) {
	query := h.DB.Where("user_id = ? AND start_time >= ?", userID, analytics.WindowStart(now, days))

	if qualifyingOnly {
		query = query.Where("counts_toward_stats = ?", true)
	}

	var sessions []models.Session
	err := query.Find(&sessions).Error
	return sessions, err
}

func (h *AnalyticsHandler) FocusDays(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	days, ok := parseDays(ctx)
	if !ok {
		return
	}

	now := time.Now().UTC()

	sessions, err := h.windowSessions(userID, now, days, true)

	if err != nil {
		log.Printf("Failed to load sessions for focus days: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, analytics.FocusConsistency(sessions, now, days))
}

func (h *AnalyticsHandler) FocusHours(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	days, ok := parseDays(ctx)
	if !ok {
		return
	}

	sessions, err := h.windowSessions(userID, time.Now().UTC(), days, true)

	if err != nil {
		log.Printf("Failed to load sessions for focus hours: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, analytics.FocusHours(sessions))
}

func (h *AnalyticsHandler) SessionOutcomes(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	days, ok := parseDays(ctx)
	if !ok {
		return
	}

	// Outcomes cover every session in the window, discarded ones
	// included, so the three counts sum to the window total.
	sessions, err := h.windowSessions(userID, time.Now().UTC(), days, false)

	if err != nil {
		log.Printf("Failed to load sessions for outcomes: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, analytics.SessionOutcomes(sessions))
}

func (h *AnalyticsHandler) Stats(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	days, ok := parseDays(ctx)
	if !ok {
		return
	}

	now := time.Now().UTC()

	sessions, err := h.windowSessions(userID, now, days, true)

	if err != nil {
		log.Printf("Failed to load sessions for stats: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	totalMinutes := 0.0
	for _, s := range sessions {
		if s.ActualDuration != nil {
			totalMinutes += *s.ActualDuration
		}
	}

	// The streak walk is not bounded by the window; it needs every
	// qualifying day going back.
	var startTimes []time.Time

	err = h.DB.Model(&models.Session{}).
		Where("user_id = ? AND counts_toward_stats = ?", userID, true).
		Pluck("start_time", &startTimes).Error

	if err != nil {
		log.Printf("Failed to load start times for streak: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	var completedTasks int64

	err = h.DB.Model(&models.Task{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&completedTasks).Error

	if err != nil {
		log.Printf("Failed to count completed tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"total_sessions":      len(sessions),
		"total_focus_minutes": totalMinutes,
		"completed_tasks":     completedTasks,
		"current_streak":      analytics.CurrentStreak(startTimes, now),
	})
}
