package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// ErrMissingJWTSecret возвращается, если не задан ключ подписи токенов
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Shortener ShortenerConfig
	CORS      CORSConfig
}

type AppConfig struct {
	Port    string
	Env     string
	BaseURL string
}

type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN возвращает строку подключения: DATABASE_URL, если задан, иначе собирается из частей
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	ShortenRequired bool // false - анонимное сокращение разрешено
	BcryptCost      int
}

type ShortenerConfig struct {
	IDLength    int
	MaxAttempts int
	CacheTTL    time.Duration
}

type CORSConfig struct {
	AllowedOrigin string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// .env опционален: в контейнере всё приходит из окружения
	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("SHORTEN_AUTH_REQUIRED", true)
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("SHORT_ID_LENGTH", 6)
	v.SetDefault("ALLOC_MAX_ATTEMPTS", 5)
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")

	cfg.DB.URL = v.GetString("DATABASE_URL")
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")

	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	cfg.Auth.TokenTTL = v.GetDuration("JWT_TTL")
	cfg.Auth.ShortenRequired = v.GetBool("SHORTEN_AUTH_REQUIRED")
	cfg.Auth.BcryptCost = v.GetInt("BCRYPT_COST")
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}

	cfg.Shortener.IDLength = v.GetInt("SHORT_ID_LENGTH")
	if cfg.Shortener.IDLength <= 0 {
		cfg.Shortener.IDLength = 6
	}
	cfg.Shortener.MaxAttempts = v.GetInt("ALLOC_MAX_ATTEMPTS")
	if cfg.Shortener.MaxAttempts <= 0 {
		cfg.Shortener.MaxAttempts = 5
	}
	cfg.Shortener.CacheTTL = v.GetDuration("CACHE_TTL")

	cfg.CORS.AllowedOrigin = v.GetString("CORS_ORIGIN")

	if cfg.DB.URL == "" && cfg.DB.Host == "" {
		return nil, errors.New("DATABASE_URL or DB_HOST is required")
	}

	return &cfg, nil
}

// IsDevelopment true для локального окружения
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development" || c.App.Env == "local"
}
