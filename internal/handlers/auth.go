package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zeroscroll/zeroscroll/internal/auth"
	"github.com/zeroscroll/zeroscroll/internal/config"
	"github.com/zeroscroll/zeroscroll/internal/mail"
	"github.com/zeroscroll/zeroscroll/internal/models"
	"github.com/zeroscroll/zeroscroll/internal/types"
	"github.com/zeroscroll/zeroscroll/internal/utils"
	"github.com/zeroscroll/zeroscroll/internal/validation"
)

const passwordPolicyMessage = "Password must be at least 10 characters, contain one uppercase letter, one lowercase letter, one number, and one special character"

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	DB     *gorm.DB
	Config *config.Config
	Tokens *auth.TokenService
	Mailer *mail.Mailer
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, token string) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.Config.CookieDomain,
		MaxAge:   int(h.Config.RefreshTokenTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.Config.CookieDomain,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) Signup(ctx *gin.Context) {
	var body SignupRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please provide an email, username and password"})
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.Username = strings.TrimSpace(body.Username)

	if !validation.ValidEmail(body.Email) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a valid email address"})
		return
	}

	if !validation.ValidPassword(body.Password) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": passwordPolicyMessage})
		return
	}

	var existing models.User

	err := h.DB.Where("email = ?", body.Email).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	err = h.DB.Where("username = ?", body.Username).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing username: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	user := models.User{
		Email:         body.Email,
		Username:      body.Username,
		PasswordHash:  passwordHash,
		TimerSettings: models.DefaultTimerSettings(),
		Preferences:   models.DefaultPreferences(),
	}

	if err := h.DB.Create(&user).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	emailToken, err := h.Tokens.Sign(auth.TokenEmail, user.ID)

	if err != nil {
		log.Printf("Failed to sign email token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := h.Mailer.SendVerificationEmail(ctx.Request.Context(), user.Email, emailToken); err != nil {
		log.Printf("Failed to send verification email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "New user created successfully, please verify your email to login",
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please provide an email and password"})
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User

	err := h.DB.Where("email = ?", body.Email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, body.Password) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	if !user.Verified {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email before logging in"})
		return
	}

	now := time.Now().UTC()

	if err := h.DB.Model(&user).Update("last_login", now).Error; err != nil {
		log.Printf("Failed to update last login: %v", err)
	}
	user.LastLogin = &now

	accessToken, err := h.Tokens.Sign(auth.TokenAccess, user.ID)

	if err != nil {
		log.Printf("Failed to sign access token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	refreshToken, err := h.Tokens.Sign(auth.TokenRefresh, user.ID)

	if err != nil {
		log.Printf("Failed to sign refresh token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.setRefreshCookie(ctx, refreshToken)

	ctx.JSON(http.StatusOK, gin.H{
		"message":     "Successful login",
		"user":        types.NewUserResponse(&user),
		"accessToken": accessToken,
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.clearRefreshCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"message": "Successful logout"})
}

func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	emailToken := ctx.Query("token")

	if emailToken == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing email verification token"})
		return
	}

	userID, err := h.Tokens.Verify(auth.TokenEmail, emailToken)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	result := h.DB.Model(&models.User{}).Where("id = ?", userID).Update("verified", true)

	if result.Error != nil {
		log.Printf("Failed to verify user: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User doesn't exist"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Successful user verification"})
}

func (h *AuthHandler) ResendVerification(ctx *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required"`
	}

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please provide an email to send the verification url"})
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User

	err := h.DB.Where("email = ?", body.Email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User doesn't exist"})
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if user.Verified {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email is already verified"})
		return
	}

	emailToken, err := h.Tokens.Sign(auth.TokenEmail, user.ID)

	if err != nil {
		log.Printf("Failed to sign email token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := h.Mailer.SendVerificationEmail(ctx.Request.Context(), user.Email, emailToken); err != nil {
		log.Printf("Failed to send verification email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Verification email resent"})
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	refreshToken, err := ctx.Cookie(refreshCookieName)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "No refresh token available"})
		return
	}

	userID, err := h.Tokens.Verify(auth.TokenRefresh, refreshToken)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var user models.User

	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User doesn't exist"})
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	// Verification can be revoked out of band; a refresh from a
	// no-longer-verified account loses its cookie.
	if !user.Verified {
		h.clearRefreshCookie(ctx)
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Email verification required"})
		return
	}

	newAccessToken, err := h.Tokens.Sign(auth.TokenAccess, user.ID)

	if err != nil {
		log.Printf("Failed to sign access token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	newRefreshToken, err := h.Tokens.Sign(auth.TokenRefresh, user.ID)

	if err != nil {
		log.Printf("Failed to sign refresh token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.setRefreshCookie(ctx, newRefreshToken)

	ctx.JSON(http.StatusOK, gin.H{
		"message":     "Tokens refreshed",
		"user":        types.NewUserResponse(&user),
		"accessToken": newAccessToken,
	})
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required"`
	}

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email missing"})
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	// The response is identical whether or not the email exists, so the
	// endpoint cannot be used to enumerate accounts.
	neutral := gin.H{"message": "If that email is registered, you'll receive a password reset link"}

	var user models.User

	err := h.DB.Where("email = ?", body.Email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusOK, neutral)
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	resetToken, err := h.Tokens.Sign(auth.TokenReset, user.ID)

	if err != nil {
		log.Printf("Failed to sign reset token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := h.Mailer.SendPasswordResetEmail(ctx.Request.Context(), user.Email, resetToken); err != nil {
		log.Printf("Failed to send password reset email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	ctx.JSON(http.StatusOK, neutral)
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var body struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Token and new password are required"})
		return
	}

	if !validation.ValidPassword(body.NewPassword) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": passwordPolicyMessage})
		return
	}

	userID, err := h.Tokens.Verify(auth.TokenReset, body.Token)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	passwordHash, err := auth.HashPassword(body.NewPassword)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	result := h.DB.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", passwordHash)

	if result.Error != nil {
		log.Printf("Failed to reset password: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current and new password are required"})
		return
	}

	var user models.User

	if err := h.DB.First(&user, userID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, body.CurrentPassword) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}

	if !validation.ValidPassword(body.NewPassword) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": passwordPolicyMessage})
		return
	}

	passwordHash, err := auth.HashPassword(body.NewPassword)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := h.DB.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		log.Printf("Failed to change password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	// Changing the password always invalidates the current session
	// cookie, forcing a fresh login.
	h.clearRefreshCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Successful password change"})
}

func (h *AuthHandler) DeleteAccount(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Children first, then the user, inside one transaction, so a
	// partial failure never leaves orphaned tasks or sessions.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, userID).Error
	})

	if err != nil {
		log.Printf("Failed to delete account: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	h.clearRefreshCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Successful account deletion"})
}
