package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/SergeiKhy/shortener-auth/internal/auth"
	"github.com/SergeiKhy/shortener-auth/internal/models"
	"github.com/SergeiKhy/shortener-auth/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrInvalidEmail       = errors.New("невалидный email")
	ErrInvalidPassword    = errors.New("невалидный пароль")
	ErrInvalidCredentials = errors.New("неверный email или пароль")
)

// TokenIssuer выпускает токены доступа
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// AccessToken результат успешного входа
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService регистрация и вход
type AuthService interface {
	Signup(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*AccessToken, error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   auth.PasswordHasher
	tokens   TokenIssuer
	logger   *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens TokenIssuer,
	logger *zap.Logger,
) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Signup создаёт пользователя; повторный email - repository.ErrUserExists без изменений записи
func (s *authService) Signup(ctx context.Context, email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return ErrInvalidPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return ErrInvalidPassword
		}
		return err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("User signed up", zap.String("email", email))
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AccessToken, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AccessToken{
		AccessToken: token,
		TokenType:   auth.TokenType,
		ExpiresAt:   expiresAt,
	}, nil
}

// validateEmail: только голый адрес, без display name
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
