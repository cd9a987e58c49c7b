package types

import (
	"time"

	"github.com/zeroscroll/zeroscroll/internal/models"
)

const ContextUserIDKey = "user_id"

// UserResponse is the public shape of a user record; the password hash
// never leaves the server.
type UserResponse struct {
	ID            uint                 `json:"id"`
	Email         string               `json:"email"`
	Username      string               `json:"username"`
	Verified      bool                 `json:"verified"`
	TimerSettings models.TimerSettings `json:"timer_settings"`
	Preferences   models.Preferences   `json:"preferences"`
	LastLogin     *time.Time           `json:"last_login"`
	CreatedAt     time.Time            `json:"created_at"`
}

func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		Verified:      user.Verified,
		TimerSettings: user.TimerSettings,
		Preferences:   user.Preferences,
		LastLogin:     user.LastLogin,
		CreatedAt:     user.CreatedAt,
	}
}
