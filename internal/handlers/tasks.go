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

type TaskHandler struct {
	DB *gorm.DB
}

type CreateTaskRequest struct {
	Title         string     `json:"title" binding:"required"`
	Priority      string     `json:"priority"`
	EstimatedTime float64    `json:"estimated_time"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags"`
	ScheduledFor  *time.Time `json:"scheduled_for"`
}

// UpdateTaskRequest accepts a partial field set; which fields clients
// may write is a product decision, not a data-integrity one, so there
// is no whitelist here.
type UpdateTaskRequest struct {
	Title         *string    `json:"title"`
	Priority      *string    `json:"priority"`
	EstimatedTime *float64   `json:"estimated_time"`
	Category      *string    `json:"category"`
	Tags          *[]string  `json:"tags"`
	ScheduledFor  *time.Time `json:"scheduled_for"`
	Completed     *bool      `json:"completed"`
}

// todayBounds is the local midnight-to-midnight window.
func todayBounds() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func (h *TaskHandler) CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task title is required"})
		return
	}

	task := models.Task{
		UserID:        userID,
		Title:         body.Title,
		Priority:      body.Priority,
		EstimatedTime: body.EstimatedTime,
		Category:      body.Category,
		Tags:          body.Tags,
		ScheduledFor:  body.ScheduledFor,
	}

	if err := h.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "New task created successfully", "task": task})
}

func (h *TaskHandler) ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var tasks []models.Task

	if err := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		log.Printf("Failed to list tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Tasks returned successfully", "tasks": tasks})
}

func (h *TaskHandler) GetTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var task models.Task

	if err := h.DB.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to fetch task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task returned successfully", "task": task})
}

func (h *TaskHandler) UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var task models.Task

	if err := h.DB.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to fetch task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	if body.Title != nil {
		if *body.Title == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task title is required"})
			return
		}
		task.Title = *body.Title
	}
	if body.Priority != nil {
		task.Priority = *body.Priority
	}
	if body.EstimatedTime != nil {
		task.EstimatedTime = *body.EstimatedTime
	}
	if body.Category != nil {
		task.Category = *body.Category
	}
	if body.Tags != nil {
		task.Tags = *body.Tags
	}
	if body.ScheduledFor != nil {
		task.ScheduledFor = body.ScheduledFor
	}
	if body.Completed != nil && *body.Completed != task.Completed {
		task.Completed = *body.Completed
		if task.Completed {
			now := time.Now()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
	}

	if err := h.DB.Save(&task).Error; err != nil {
		log.Printf("Failed to update task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task updated successfully", "task": task})
}

func (h *TaskHandler) DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result := h.DB.Where("id = ? AND user_id = ?", ctx.Param("id"), userID).Delete(&models.Task{})

	if result.Error != nil {
		log.Printf("Failed to delete task: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task successfully deleted"})
}

// TodayTasks lists uncompleted tasks scheduled for today, earliest
// first.
func (h *TaskHandler) TodayTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	start, end := todayBounds()

	var tasks []models.Task

	err = h.DB.
		Where("user_id = ? AND completed = ? AND scheduled_for >= ? AND scheduled_for < ?", userID, false, start, end).
		Order("scheduled_for ASC").
		Find(&tasks).Error

	if err != nil {
		log.Printf("Failed to list today's tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Today's tasks returned successfully", "tasks": tasks})
}

// CompletedTodayTasks lists tasks finished today, for the daily goal
// display.
func (h *TaskHandler) CompletedTodayTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	start, end := todayBounds()

	var tasks []models.Task

	err = h.DB.
		Where("user_id = ? AND completed = ? AND completed_at >= ? AND completed_at < ?", userID, true, start, end).
		Order("completed_at ASC").
		Find(&tasks).Error

	if err != nil {
		log.Printf("Failed to list tasks completed today: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Tasks completed today returned successfully", "tasks": tasks})
}
