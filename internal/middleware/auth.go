package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserEmail     = "user_email"
	ctxAuthenticated = "authenticated"
)

// TokenVerifier проверяет токен доступа и возвращает email владельца
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// BearerAuthConfig конфигурация для аутентификации по Bearer токену
type BearerAuthConfig struct {
	Verifier TokenVerifier
	// Optional если true, запросы без токена будут обработаны анонимно.
	// Предъявленный, но невалидный токен отклоняется в любом режиме.
	Optional bool
}

// BearerAuth middleware для аутентификации по токену доступа
type BearerAuth struct {
	config BearerAuthConfig
}

// NewBearerAuth создаёт новый auth middleware
func NewBearerAuth(config BearerAuthConfig) *BearerAuth {
	return &BearerAuth{config: config}
}

// Middleware возвращает Gin middleware handler
func (ba *BearerAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c.GetHeader("Authorization"))

		if !present {
			if ba.config.Optional {
				c.Set(ctxAuthenticated, false)
				c.Next()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authorization: Bearer token is required",
			})
			c.Abort()
			return
		}

		email, err := ba.config.Verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Token is invalid or expired",
			})
			c.Abort()
			return
		}

		c.Set(ctxAuthenticated, true)
		c.Set(ctxUserEmail, email)

		c.Next()
	}
}

// RequireAuth хелпер для роутов, требующих токен
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return NewBearerAuth(BearerAuthConfig{Verifier: verifier}).Middleware()
}

// OptionalAuth хелпер для роутов, где токен не обязателен
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return NewBearerAuth(BearerAuthConfig{Verifier: verifier, Optional: true}).Middleware()
}

// GetUserEmail извлекает email аутентифицированного пользователя из контекста
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ctxUserEmail)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok && s != ""
}

// IsAuthenticated проверяет, был ли токен успешно проверен
func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(ctxAuthenticated)
}

// bearerToken: present=true, если заголовок Authorization вообще передан
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}
