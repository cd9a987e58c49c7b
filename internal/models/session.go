package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SessionTypeFocus   = "FOCUS"
	SessionTypeBreak   = "BREAK"
	SessionTypeRecover = "RECOVER"
)

// ValidSessionType reports whether t is one of the three timer modes.
func ValidSessionType(t string) bool {
	switch t {
	case SessionTypeFocus, SessionTypeBreak, SessionTypeRecover:
		return true
	}
	return false
}

// Session is a single timer run. It is created running and mutated
// exactly once, when stopped: EndTime is set and the three outcome
// fields (ActualDuration, Completed, CountsTowardStats) are frozen.
// A nil EndTime means the session has not been stopped yet.
type Session struct {
	gorm.Model

	UserID uint `gorm:"index;not null" json:"user_id"`

	SessionType     string  `gorm:"not null" json:"session_type"`
	PlannedDuration float64 `gorm:"not null" json:"planned_duration"` // minutes

	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	ActualDuration    *float64 `json:"actual_duration"` // minutes, client reported
	Completed         bool     `gorm:"not null;default:false" json:"completed"`
	CountsTowardStats bool     `gorm:"not null;default:false" json:"counts_toward_stats"`
}

// Stopped reports whether the session already went through its single
// start -> stop transition.
func (s *Session) Stopped() bool {
	return s.EndTime != nil
}
