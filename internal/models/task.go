package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model

	UserID uint `gorm:"index;not null" json:"user_id"`

	Title         string     `gorm:"not null" json:"title"`
	Priority      string     `json:"priority"`
	EstimatedTime float64    `json:"estimated_time"` // minutes
	Category      string     `json:"category"`       // deep work or shallow work
	Tags          []string   `gorm:"serializer:json" json:"tags"` // i.e. coding, studying - for sorting
	ScheduledFor  *time.Time `json:"scheduled_for"`
	Completed     bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt   *time.Time `json:"completed_at"`
}
