package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/llm-proxy-admin/internal/config"
	"github.com/iliyamo/llm-proxy-admin/internal/database"
	"github.com/iliyamo/llm-proxy-admin/internal/handler"
	"github.com/iliyamo/llm-proxy-admin/internal/queue"
	"github.com/iliyamo/llm-proxy-admin/internal/repository"
	"github.com/iliyamo/llm-proxy-admin/internal/router"
	"github.com/iliyamo/llm-proxy-admin/internal/security"
	"github.com/iliyamo/llm-proxy-admin/internal/service"
	"github.com/iliyamo/llm-proxy-admin/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := newLogger(cfg.Env)

	rdb, err := config.NewRedisClient()
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	secretStore := store.NewRedis(rdb)

	cryptor, err := security.NewCryptor(cfg.EncryptionKey)
	if err != nil {
		logger.Error("invalid encryption key", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepo(secretStore)
	tokens := repository.NewTokenRepo(secretStore)
	tokenSvc := service.NewTokenService(
		tokens,
		[]byte(cfg.AccessSecret),
		[]byte(cfg.RefreshSecret),
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		time.Duration(cfg.BlacklistMaxTTLSec)*time.Second,
	)

	var audit *service.Publisher
	if cfg.AMQPURL != "" {
		audit = service.NewPublisher(cfg.AMQPURL, logger)
	}

	sessions, err := service.NewSessionService(users, tokenSvc, logger, audit, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		logger.Error("session service init failed", "error", err)
		os.Exit(1)
	}
	userSvc := service.NewUserService(users, cryptor, logger, audit, cfg.AdminEmail, cfg.BcryptCost)

	var audits *repository.AuditRepo
	if cfg.DBHost != "" {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			logger.Warn("audit database unavailable, audit trail disabled", "error", err)
		} else {
			audits = repository.NewAuditRepo(db)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := audits.EnsureSchema(ctx); err != nil {
				logger.Warn("audit schema setup failed", "error", err)
			}
			cancel()
			if cfg.AMQPURL != "" {
				go queue.StartAuditConsumer(cfg.AMQPURL, audits, logger)
			}
		}
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(sessions), tokenSvc)
	router.RegisterUsers(e, handler.NewUserHandler(userSvc, audits), tokenSvc)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger: JSON in prod, text elsewhere.
func newLogger(env string) *slog.Logger {
	if env == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
