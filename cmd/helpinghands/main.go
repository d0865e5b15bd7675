package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/helping-hands-dev/helping-hands/db"
	"github.com/helping-hands-dev/helping-hands/internal/auth"
	"github.com/helping-hands-dev/helping-hands/internal/cache"
	"github.com/helping-hands-dev/helping-hands/internal/config"
	"github.com/helping-hands-dev/helping-hands/internal/feed"
	"github.com/helping-hands-dev/helping-hands/internal/ledger"
	"github.com/helping-hands-dev/helping-hands/internal/mailer"
	"github.com/helping-hands-dev/helping-hands/internal/router"
	"github.com/helping-hands-dev/helping-hands/internal/types"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on process environment")
	}

	cfg := config.Load()

	if err := auth.InitJWTSecret(); err != nil {
		logrus.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)

	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	var statsCache *cache.Cache

	if cfg.RedisAddr != "" {
		statsCache, err = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, time.Minute)
		if err != nil {
			logrus.Warnf("Redis unavailable, stats cache disabled: %v", err)
			statsCache = nil
		}
	}

	var mail mailer.Mailer

	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logrus.Warn("SMTP not configured, outbound email disabled")
	}

	r := router.NewRouter(router.Dependencies{
		DB:     database,
		Cache:  statsCache,
		Mailer: mail,
		Feed:   feed.NewHub(types.AllowedOrigins),
		Ledger: ledger.NewCoordinator(database),
		Config: cfg,
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
