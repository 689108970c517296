package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/shortener-auth/internal/auth"
	"github.com/SergeiKhy/shortener-auth/internal/config"
	"github.com/SergeiKhy/shortener-auth/internal/handler"
	"github.com/SergeiKhy/shortener-auth/internal/migrations"
	"github.com/SergeiKhy/shortener-auth/internal/repository"
	"github.com/SergeiKhy/shortener-auth/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига; без JWT_SECRET дальше не идём
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Миграции схемы
	migrator, err := migrations.New(cfg.DB.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to init migrations", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Инициализация репозиториев
	linkRepo := repository.NewLinkRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redis)

	// Аутентификация
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("Failed to init token manager", zap.Error(err))
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	// Инициализация сервисов
	allocator := service.NewAllocator(linkRepo, service.AllocatorConfig{
		Length:      cfg.Shortener.IDLength,
		MaxAttempts: cfg.Shortener.MaxAttempts,
	}, logger)
	linkService := service.NewLinkService(linkRepo, cacheRepo, allocator, cfg.Shortener.CacheTTL, logger)
	authService := service.NewAuthService(userRepo, hasher, tokens, logger)

	if !cfg.Auth.ShortenRequired {
		logger.Warn("Anonymous shortening enabled")
	}

	// Настройка роутера
	router := handler.NewRouter(linkService, authService, tokens, db, handler.RouterConfig{
		BaseURL:             cfg.App.BaseURL,
		CORSOrigin:          cfg.CORS.AllowedOrigin,
		ShortenAuthRequired: cfg.Auth.ShortenRequired,
	}, logger)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.App.Port),
			zap.String("base_url", cfg.App.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
