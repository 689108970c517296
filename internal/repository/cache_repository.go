package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/shortener-auth/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss ключа нет в кэше
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository кэш ссылок для редиректа (cache-aside перед Postgres).
// Счётчики в закэшированной записи не актуальны, кэш используется только для original_url.
type CacheRepository interface {
	Get(ctx context.Context, shortID string) (*models.Link, error)
	Set(ctx context.Context, link *models.Link, ttl time.Duration) error
	Delete(ctx context.Context, shortID string) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) Get(ctx context.Context, shortID string) (*models.Link, error) {
	data, err := r.redis.Client.Get(ctx, r.key(shortID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached link: %w", err)
	}

	var link models.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}

	return &link, nil
}

func (r *cacheRepository) Set(ctx context.Context, link *models.Link, ttl time.Duration) error {
	data, err := json.Marshal(cachedLink(link))
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(link.ShortID), data, ttl).Err()
}

func (r *cacheRepository) Delete(ctx context.Context, shortID string) error {
	return r.redis.Client.Del(ctx, r.key(shortID)).Err()
}

func (r *cacheRepository) key(shortID string) string {
	return "link:" + shortID
}

// cachedLink оставляет только неизменяемые поля
func cachedLink(link *models.Link) *models.Link {
	return &models.Link{
		ID:          link.ID,
		ShortID:     link.ShortID,
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
		Owner:       link.Owner,
	}
}
