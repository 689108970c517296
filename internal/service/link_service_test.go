package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/SergeiKhy/shortener-auth/internal/models"
	"github.com/SergeiKhy/shortener-auth/internal/repository"
	"github.com/SergeiKhy/shortener-auth/internal/service"
	"github.com/SergeiKhy/shortener-auth/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestService создаёт тестовое окружение с моковыми репозиториями
func setupTestService() (service.LinkService, *mocks.MockLinkRepository, *mocks.MockCacheRepository) {
	linkRepo := mocks.NewMockLinkRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	logger, _ := zap.NewDevelopment()
	allocator := service.NewAllocator(linkRepo, service.AllocatorConfig{Length: 6, MaxAttempts: 5}, logger)
	linkService := service.NewLinkService(linkRepo, cacheRepo, allocator, 0, logger)
	return linkService, linkRepo, cacheRepo
}

func strPtr(s string) *string { return &s }

// TestLinkService_CreateLink_Success проверяет успешное создание ссылки
func TestLinkService_CreateLink_Success(t *testing.T) {
	linkService, linkRepo, _ := setupTestService()

	input := &models.CreateLinkInput{
		OriginalURL: "https://example.com/test",
		Owner:       strPtr("a@x.com"),
	}

	ctx := context.Background()
	link, err := linkService.CreateLink(ctx, input)

	require.NoError(t, err)
	assert.Len(t, link.ShortID, 6)
	assert.Equal(t, input.OriginalURL, link.OriginalURL)
	assert.False(t, link.CreatedAt.IsZero())
	assert.Nil(t, link.LastUsedAt)
	assert.Zero(t, link.Clicks)
	assert.True(t, link.OwnedBy("a@x.com"))

	stored, err := linkRepo.FindByShortID(ctx, link.ShortID)
	require.NoError(t, err)
	assert.Equal(t, input.OriginalURL, stored.OriginalURL)
}

// TestLinkService_CreateLink_Anonymous проверяет ссылку без владельца
func TestLinkService_CreateLink_Anonymous(t *testing.T) {
	linkService, _, _ := setupTestService()

	link, err := linkService.CreateLink(context.Background(), &models.CreateLinkInput{
		OriginalURL: "https://example.com/anon",
	})

	require.NoError(t, err)
	assert.Nil(t, link.Owner)
}

// TestLinkService_ValidateURL проверяет валидацию URL
func TestLinkService_ValidateURL(t *testing.T) {
	validURLs := []string{
		"https://example.com",
		"http://example.com/path",
		"https://sub.example.com/path?query=value#frag",
		"http://localhost:5173/page",
	}

	invalidURLs := []string{
		"not-a-url",
		"ftp://example.com",
		"",
		"example.com",
		"https://",
		"/relative/path",
		"javascript:alert(1)",
		"https://exa mple.com",
	}

	for _, url := range validURLs {
		linkService, _, _ := setupTestService()
		link, err := linkService.CreateLink(context.Background(), &models.CreateLinkInput{OriginalURL: url})
		assert.NoError(t, err, "URL должен быть валидным: %s", url)
		assert.NotNil(t, link)
	}

	for _, url := range invalidURLs {
		linkService, linkRepo, _ := setupTestService()
		link, err := linkService.CreateLink(context.Background(), &models.CreateLinkInput{OriginalURL: url})
		assert.ErrorIs(t, err, service.ErrInvalidURL, "URL должен быть невалидным: %s", url)
		assert.Nil(t, link)
		assert.Equal(t, 0, linkRepo.CreateCalls, "аллокатор не должен вызываться: %s", url)
	}
}

// TestLinkService_CreateLink_Exhausted проверяет проброс ErrAllocationExhausted
func TestLinkService_CreateLink_Exhausted(t *testing.T) {
	linkService, linkRepo, _ := setupTestService()
	linkRepo.CreateHook = func(*models.Link) error { return repository.ErrDuplicateIdentifier }

	link, err := linkService.CreateLink(context.Background(), &models.CreateLinkInput{OriginalURL: "https://example.com"})

	assert.ErrorIs(t, err, service.ErrAllocationExhausted)
	assert.Nil(t, link)
}

// TestLinkService_Resolve_RoundTrip проверяет, что редирект возвращает исходный URL
func TestLinkService_Resolve_RoundTrip(t *testing.T) {
	linkService, linkRepo, _ := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, &models.CreateLinkInput{OriginalURL: "https://example.com/page?x=1"})
	require.NoError(t, err)

	resolved, err := linkService.Resolve(ctx, created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page?x=1", resolved.OriginalURL)

	_, err = linkService.Resolve(ctx, created.ShortID)
	require.NoError(t, err)

	stored, err := linkRepo.FindByShortID(ctx, created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Clicks)
	assert.NotNil(t, stored.LastUsedAt)
}

// TestLinkService_Resolve_FromCache проверяет получение ссылки из кэша
func TestLinkService_Resolve_FromCache(t *testing.T) {
	linkService, _, cacheRepo := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, &models.CreateLinkInput{OriginalURL: "https://example.com/cached"})
	require.NoError(t, err)

	// Проверяем, что ссылка попала в кэш
	cached, err := cacheRepo.Get(ctx, created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, created.OriginalURL, cached.OriginalURL)

	resolved, err := linkService.Resolve(ctx, created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, created.OriginalURL, resolved.OriginalURL)
}

// TestLinkService_Resolve_CacheFailure проверяет, что сбой кэша не ломает редирект
func TestLinkService_Resolve_CacheFailure(t *testing.T) {
	linkService, _, cacheRepo := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, &models.CreateLinkInput{OriginalURL: "https://example.com/nocache"})
	require.NoError(t, err)

	cacheRepo.GetErr = errors.New("redis down")

	resolved, err := linkService.Resolve(ctx, created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, created.OriginalURL, resolved.OriginalURL)
}

// TestLinkService_Resolve_WithoutCache проверяет работу без Redis
func TestLinkService_Resolve_WithoutCache(t *testing.T) {
	linkRepo := mocks.NewMockLinkRepository()
	allocator := service.NewAllocator(linkRepo, service.AllocatorConfig{}, nil)
	linkService := service.NewLinkService(linkRepo, nil, allocator, 0, nil)
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, &models.CreateLinkInput{OriginalURL: "https://example.com"})
	require.NoError(t, err)

	resolved, err := linkService.Resolve(ctx, created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, created.OriginalURL, resolved.OriginalURL)
}

// TestLinkService_Resolve_NotFound проверяет обработку несуществующей ссылки
func TestLinkService_Resolve_NotFound(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	for _, id := range []string{"abc123", "favicon.ico", ""} {
		link, err := linkService.Resolve(ctx, id)
		assert.ErrorIs(t, err, repository.ErrLinkNotFound, id)
		assert.Nil(t, link)
	}
}

// TestLinkService_Resolve_StaleCache проверяет вытеснение записи, которой нет в БД
func TestLinkService_Resolve_StaleCache(t *testing.T) {
	linkService, _, cacheRepo := setupTestService()
	ctx := context.Background()

	require.NoError(t, cacheRepo.Set(ctx, &models.Link{ShortID: "ghost1", OriginalURL: "https://example.com"}, 0))

	_, err := linkService.Resolve(ctx, "ghost1")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)

	_, err = cacheRepo.Get(ctx, "ghost1")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

// TestLinkService_Resolve_StoreError проверяет проброс ошибки хранилища
func TestLinkService_Resolve_StoreError(t *testing.T) {
	linkService, linkRepo, _ := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, &models.CreateLinkInput{OriginalURL: "https://example.com"})
	require.NoError(t, err)

	storeErr := errors.New("connection refused")
	linkRepo.RecordUseErr = storeErr

	_, err = linkService.Resolve(ctx, created.ShortID)
	assert.ErrorIs(t, err, storeErr)
}

// TestLinkService_Resolve_ConcurrentClicks проверяет отсутствие потерянных инкрементов
func TestLinkService_Resolve_ConcurrentClicks(t *testing.T) {
	linkService, linkRepo, _ := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, &models.CreateLinkInput{OriginalURL: "https://example.com"})
	require.NoError(t, err)

	const m = 100
	var wg sync.WaitGroup
	for i := 0; i < m; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := linkService.Resolve(ctx, created.ShortID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := linkRepo.FindByShortID(ctx, created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, int64(m), stored.Clicks)
}

// TestLinkService_GetOwnedLink проверяет доступ владельца к статистике
func TestLinkService_GetOwnedLink(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	created, err := linkService.CreateLink(ctx, &models.CreateLinkInput{
		OriginalURL: "https://example.com",
		Owner:       strPtr("a@x.com"),
	})
	require.NoError(t, err)
	_, err = linkService.Resolve(ctx, created.ShortID)
	require.NoError(t, err)

	link, err := linkService.GetOwnedLink(ctx, created.ShortID, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.Clicks)

	_, err = linkService.GetOwnedLink(ctx, created.ShortID, "b@x.com")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

// TestLinkService_ListLinks проверяет список ссылок владельца
func TestLinkService_ListLinks(t *testing.T) {
	linkService, _, _ := setupTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := linkService.CreateLink(ctx, &models.CreateLinkInput{
			OriginalURL: fmt.Sprintf("https://example.com/%d", i),
			Owner:       strPtr("a@x.com"),
		})
		require.NoError(t, err)
	}
	_, err := linkService.CreateLink(ctx, &models.CreateLinkInput{
		OriginalURL: "https://example.com/other",
		Owner:       strPtr("b@x.com"),
	})
	require.NoError(t, err)

	links, err := linkService.ListLinks(ctx, "a@x.com", 3)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "https://example.com/4", links[0].OriginalURL)

	all, err := linkService.ListLinks(ctx, "a@x.com", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
