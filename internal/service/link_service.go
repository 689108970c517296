package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SergeiKhy/shortener-auth/internal/models"
	"github.com/SergeiKhy/shortener-auth/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidURL = errors.New("невалидный URL")
)

// Константы сервиса
const (
	defaultCacheTTL = 24 * time.Hour
	maxURLLength    = 2048
	defaultLimit    = 20
	maxLimit        = 100
)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	// Resolve находит ссылку и фиксирует переход по ней
	Resolve(ctx context.Context, shortID string) (*models.Link, error)
	GetOwnedLink(ctx context.Context, shortID, owner string) (*models.Link, error)
	ListLinks(ctx context.Context, owner string, limit int) ([]*models.Link, error)
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	allocator *Allocator
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса. cacheRepo может быть nil - тогда редирект идёт напрямую в БД.
func NewLinkService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	allocator *Allocator,
	cacheTTL time.Duration,
	logger *zap.Logger,
) LinkService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		allocator: allocator,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// CreateLink создаёт новую короткую ссылку
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	normalized, err := validateURL(input.OriginalURL)
	if err != nil {
		return nil, err
	}

	link := &models.Link{
		OriginalURL: normalized,
		Owner:       input.Owner,
	}

	if err := s.allocator.Allocate(ctx, link); err != nil {
		return nil, err
	}

	// Прогреваем кэш: свежие ссылки часто открывают сразу
	s.cacheSet(ctx, link)

	return link, nil
}

// Resolve: поиск (кэш, затем БД), затем атомарный инкремент счётчика в БД
func (s *linkService) Resolve(ctx context.Context, shortID string) (*models.Link, error) {
	if !IsValidShortID(shortID) {
		return nil, repository.ErrLinkNotFound
	}

	link, err := s.lookup(ctx, shortID)
	if err != nil {
		return nil, err
	}

	if err := s.linkRepo.RecordUse(ctx, shortID); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			// в кэше запись, которой нет в БД
			s.cacheDelete(ctx, shortID)
		}
		return nil, err
	}

	return link, nil
}

// GetOwnedLink возвращает ссылку со счётчиками, только если owner её создал
func (s *linkService) GetOwnedLink(ctx context.Context, shortID, owner string) (*models.Link, error) {
	if !IsValidShortID(shortID) {
		return nil, repository.ErrLinkNotFound
	}

	link, err := s.linkRepo.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}

	// чужие ссылки не отличаются от несуществующих
	if !link.OwnedBy(owner) {
		return nil, repository.ErrLinkNotFound
	}

	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, owner string, limit int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return s.linkRepo.ListByOwner(ctx, owner, limit)
}

func (s *linkService) lookup(ctx context.Context, shortID string) (*models.Link, error) {
	if s.cacheRepo != nil {
		link, err := s.cacheRepo.Get(ctx, shortID)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("Cache read failed", zap.String("short_id", shortID), zap.Error(err))
		}
	}

	link, err := s.linkRepo.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, link)
	return link, nil
}

func (s *linkService) cacheSet(ctx context.Context, link *models.Link) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Set(ctx, link, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache link", zap.String("short_id", link.ShortID), zap.Error(err))
	}
}

func (s *linkService) cacheDelete(ctx context.Context, shortID string) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(ctx, shortID); err != nil {
		s.logger.Warn("Failed to evict link", zap.String("short_id", shortID), zap.Error(err))
	}
}

// validateURL принимает только абсолютные http(s) URL с хостом
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxURLLength || strings.ContainsAny(raw, " \t\r\n") {
		return "", ErrInvalidURL
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Host == "" || u.Hostname() == "" {
		return "", ErrInvalidURL
	}

	return raw, nil
}
