package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zeroscroll/zeroscroll/internal/models"
	"github.com/zeroscroll/zeroscroll/internal/utils"
)

type TimerPresetUpdate struct {
	Value *float64 `json:"value"`
	Unit  *string  `json:"unit"`
}

type UpdateTimerSettingsRequest struct {
	Focus   *TimerPresetUpdate `json:"focus"`
	Break   *TimerPresetUpdate `json:"break"`
	Recover *TimerPresetUpdate `json:"recover"`
}

type UpdatePreferencesRequest struct {
	SoundEnabled     *bool `json:"sound_enabled"`
	AutoStartNext    *bool `json:"auto_start_next"`
	DailyGoalMinutes *int  `json:"daily_goal_minutes"`
}

func (h *AuthHandler) GetSettings(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := h.DB.First(&user, userID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"timer_settings": user.TimerSettings,
		"preferences":    user.Preferences,
	})
}

func (h *AuthHandler) UpdateTimerSettings(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateTimerSettingsRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	if err := h.DB.First(&user, userID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	applyPreset(&user.TimerSettings.Focus, body.Focus)
	applyPreset(&user.TimerSettings.Break, body.Break)
	applyPreset(&user.TimerSettings.Recover, body.Recover)

	for _, preset := range []models.TimerPreset{
		user.TimerSettings.Focus,
		user.TimerSettings.Break,
		user.TimerSettings.Recover,
	} {
		if preset.Value <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Timer preset values must be positive"})
			return
		}
	}

	if err := h.DB.Save(&user).Error; err != nil {
		log.Printf("Failed to update timer settings: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":        "Timer settings updated successfully",
		"timer_settings": user.TimerSettings,
	})
}

func applyPreset(preset *models.TimerPreset, update *TimerPresetUpdate) {
	if update == nil {
		return
	}
	if update.Value != nil {
		preset.Value = *update.Value
	}
	if update.Unit != nil {
		preset.Unit = *update.Unit
	}
}

func (h *AuthHandler) UpdatePreferences(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdatePreferencesRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	if err := h.DB.First(&user, userID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if body.SoundEnabled != nil {
		user.Preferences.SoundEnabled = *body.SoundEnabled
	}
	if body.AutoStartNext != nil {
		user.Preferences.AutoStartNext = *body.AutoStartNext
	}
	if body.DailyGoalMinutes != nil {
		if *body.DailyGoalMinutes < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Daily goal must not be negative"})
			return
		}
		user.Preferences.DailyGoalMinutes = *body.DailyGoalMinutes
	}

	if err := h.DB.Save(&user).Error; err != nil {
		log.Printf("Failed to update preferences: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":     "Preferences updated successfully",
		"preferences": user.Preferences,
	})
}
