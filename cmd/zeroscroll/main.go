package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/zeroscroll/zeroscroll/db"
	"github.com/zeroscroll/zeroscroll/internal/auth"
	"github.com/zeroscroll/zeroscroll/internal/config"
	"github.com/zeroscroll/zeroscroll/internal/mail"
	"github.com/zeroscroll/zeroscroll/internal/middleware"
	"github.com/zeroscroll/zeroscroll/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN)

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	tokens := auth.NewTokenService(cfg)
	mailer := mail.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom, cfg.ClientURL)

	var counters middleware.CounterStore = middleware.NewMemoryStore()

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)

		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}

		counters = middleware.NewRedisStore(redis.NewClient(opts))
	} else {
		log.Println("REDIS_URL not set, rate limiting with in-process counters")
	}

	r := router.NewRouter(cfg, database, tokens, mailer, counters)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
