package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zeroscroll/zeroscroll/internal/auth"
	"github.com/zeroscroll/zeroscroll/internal/config"
	"github.com/zeroscroll/zeroscroll/internal/handlers"
	"github.com/zeroscroll/zeroscroll/internal/mail"
	"github.com/zeroscroll/zeroscroll/internal/middleware"
)

// Signup and login share one counter store so multi-instance
// deployments see the same windows; the per-endpoint budgets come from
// the original abuse limits (logins are retried, accounts are not).
const (
	loginLimit   = 5
	loginWindow  = 15 * time.Minute
	signupLimit  = 3
	signupWindow = time.Hour
)

func NewRouter(cfg *config.Config, database *gorm.DB, tokens *auth.TokenService, mailer *mail.Mailer, counters middleware.CounterStore) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL, "http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := &handlers.AuthHandler{DB: database, Config: cfg, Tokens: tokens, Mailer: mailer}
	taskHandler := &handlers.TaskHandler{DB: database}
	sessionHandler := &handlers.SessionHandler{DB: database}
	analyticsHandler := &handlers.AnalyticsHandler{DB: database}

	loginLimiter := middleware.RateLimit(counters, "login", loginLimit, loginWindow,
		"Too many login attempts from this IP, please try again after 15 minutes.")
	signupLimiter := middleware.RateLimit(counters, "signup", signupLimit, signupWindow,
		"Too many accounts created from this IP. Try again later.")

	requireAuth := middleware.AuthMiddleware(tokens)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", signupLimiter, authHandler.Signup)
			authRoutes.POST("/login", loginLimiter, authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/verify-email", authHandler.VerifyEmail)
			authRoutes.POST("/resend-verification", authHandler.ResendVerification)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
			authRoutes.POST("/reset-password", authHandler.ResetPassword)

			authRoutes.POST("/change-password", requireAuth, authHandler.ChangePassword)
			authRoutes.DELETE("/delete-account", requireAuth, authHandler.DeleteAccount)

			authRoutes.GET("/settings", requireAuth, authHandler.GetSettings)
			authRoutes.PATCH("/settings/timer", requireAuth, authHandler.UpdateTimerSettings)
			authRoutes.PATCH("/settings/preferences", requireAuth, authHandler.UpdatePreferences)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/today", taskHandler.TodayTasks)
			tasks.GET("/completed-today", taskHandler.CompletedTodayTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		sessions := api.Group("/sessions", requireAuth)
		{
			sessions.POST("", sessionHandler.StartSession)
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/today", sessionHandler.TodaySessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.PATCH("/:id", sessionHandler.StopSession)
			sessions.DELETE("/:id", sessionHandler.DeleteSession)
		}

		analytics := api.Group("/analytics", requireAuth)
		{
			analytics.GET("/focus-days/:days", analyticsHandler.FocusDays)
			analytics.GET("/focus-hours/:days", analyticsHandler.FocusHours)
			analytics.GET("/session-outcomes/:days", analyticsHandler.SessionOutcomes)
			analytics.GET("/stats/:days", analyticsHandler.Stats)
		}
	}

	return r
}
