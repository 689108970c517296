package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/shortener-auth/internal/models"
	"github.com/SergeiKhy/shortener-auth/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	nextID int64

	// CreateHook, if set, runs before insert; a non-nil error is returned as is
	CreateHook func(link *models.Link) error
	// ExistsHook, if set, overrides the Exists answer
	ExistsHook func(shortID string) (bool, error)
	// RecordUseErr, if set, is returned by RecordUse
	RecordUseErr error

	CreateCalls int
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[string]*models.Link),
		nextID: 1,
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.CreateHook != nil {
		if err := m.CreateHook(link); err != nil {
			return err
		}
	}

	if _, exists := m.links[link.ShortID]; exists {
		return repository.ErrDuplicateIdentifier
	}

	link.ID = m.nextID
	m.nextID++
	link.CreatedAt = time.Now()
	link.LastUsedAt = nil
	link.Clicks = 0

	stored := *link
	m.links[link.ShortID] = &stored
	return nil
}

func (m *MockLinkRepository) FindByShortID(ctx context.Context, shortID string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[shortID]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) RecordUse(ctx context.Context, shortID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RecordUseErr != nil {
		return m.RecordUseErr
	}

	link, exists := m.links[shortID]
	if !exists {
		return repository.ErrLinkNotFound
	}
	now := time.Now()
	link.Clicks++
	link.LastUsedAt = &now
	return nil
}

func (m *MockLinkRepository) Exists(ctx context.Context, shortID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ExistsHook != nil {
		return m.ExistsHook(shortID)
	}
	_, exists := m.links[shortID]
	return exists, nil
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Link, 0)
	for _, link := range m.links {
		if link.OwnedBy(owner) {
			copied := *link
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Len returns the number of stored links
func (m *MockLinkRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.nextID = 1
	m.CreateCalls = 0
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link

	// GetErr, if set, is returned by Get instead of the cached value
	GetErr error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, shortID string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	link, exists := m.cache[shortID]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	copied := *link
	return &copied, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *link
	m.cache[link.ShortID] = &copied
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, shortID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, shortID)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
}

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserExists
	}
	user.CreatedAt = time.Now()
	copied := *user
	m.users[user.Email] = &copied
	return nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}
