package handler

import (
	"github.com/SergeiKhy/shortener-auth/internal/middleware"
	"github.com/SergeiKhy/shortener-auth/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig параметры HTTP слоя
type RouterConfig struct {
	BaseURL             string
	CORSOrigin          string
	ShortenAuthRequired bool
}

func NewRouter(
	linkService service.LinkService,
	authService service.AuthService,
	verifier middleware.TokenVerifier,
	db Pinger,
	cfg RouterConfig,
	logger *zap.Logger,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	if cfg.CORSOrigin != "" {
		router.Use(middleware.CORS(cfg.CORSOrigin))
	}

	linkHandler := NewLinkHandler(linkService, cfg.BaseURL, logger)
	authHandler := NewAuthHandler(authService, logger)

	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)

	// В открытом режиме токен необязателен, но если передан - проверяется
	shortenAuth := middleware.RequireAuth(verifier)
	if !cfg.ShortenAuthRequired {
		shortenAuth = middleware.OptionalAuth(verifier)
	}
	router.POST("/shorten", shortenAuth, linkHandler.Shorten)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck(db))

		links := v1.Group("/links", middleware.RequireAuth(verifier))
		links.GET("", linkHandler.ListLinks)
		links.GET("/:code", linkHandler.GetLink)
	}

	// Редирект (корневой путь) - без аутентификации
	router.GET("/:code", linkHandler.Redirect)

	return router
}
