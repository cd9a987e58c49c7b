package models

import (
	"time"

	"gorm.io/gorm"
)

// TimerPreset is one per-session-type countdown preset, e.g. {50, "minutes"}.
type TimerPreset struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type TimerSettings struct {
	Focus   TimerPreset `json:"focus" gorm:"embedded;embeddedPrefix:focus_"`
	Break   TimerPreset `json:"break" gorm:"embedded;embeddedPrefix:break_"`
	Recover TimerPreset `json:"recover" gorm:"embedded;embeddedPrefix:recover_"`
}

type Preferences struct {
	SoundEnabled     bool `json:"sound_enabled"`
	AutoStartNext    bool `json:"auto_start_next"`
	DailyGoalMinutes int  `json:"daily_goal_minutes"`
}

type User struct {
	gorm.Model

	Email        string `gorm:"uniqueIndex;not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Verified     bool   `gorm:"not null;default:false"`

	TimerSettings TimerSettings `gorm:"embedded;embeddedPrefix:timer_"`
	Preferences   Preferences   `gorm:"embedded;embeddedPrefix:pref_"`

	LastLogin *time.Time

	// Relationships
	Tasks    []Task    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Sessions []Session `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// DefaultTimerSettings is applied at signup: 50/10 focus-break cycles
// with a 20 minute recovery block.
func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		Focus:   TimerPreset{Value: 50, Unit: "minutes"},
		Break:   TimerPreset{Value: 10, Unit: "minutes"},
		Recover: TimerPreset{Value: 20, Unit: "minutes"},
	}
}

func DefaultPreferences() Preferences {
	return Preferences{
		SoundEnabled:     true,
		AutoStartNext:    false,
		DailyGoalMinutes: 150,
	}
}
