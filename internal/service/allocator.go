package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/SergeiKhy/shortener-auth/internal/models"
	"github.com/SergeiKhy/shortener-auth/internal/repository"
	"go.uber.org/zap"
)

// Alphabet 62 символа короткого идентификатора
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	defaultIDLength    = 6
	defaultMaxAttempts = 5
	// ширина колонки links.short_id
	maxIDLength = 32
)

// ErrAllocationExhausted все попытки подобрать свободный идентификатор закончились коллизиями.
// Сигнал увеличить длину идентификатора.
var ErrAllocationExhausted = errors.New("short id allocation exhausted")

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// AllocatorConfig параметры генерации идентификаторов
type AllocatorConfig struct {
	Length      int
	MaxAttempts int
}

// Allocator выдаёт уникальные короткие идентификаторы и вставляет ссылку в хранилище.
// Уникальность гарантирует ограничение UNIQUE в хранилище, проверка Exists лишь экономит вставки.
type Allocator struct {
	links       repository.LinkRepository
	length      int
	maxAttempts int
	logger      *zap.Logger
}

func NewAllocator(links repository.LinkRepository, cfg AllocatorConfig, logger *zap.Logger) *Allocator {
	if cfg.Length <= 0 || cfg.Length > maxIDLength {
		cfg.Length = defaultIDLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{
		links:       links,
		length:      cfg.Length,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger,
	}
}

// Length длина генерируемых идентификаторов
func (a *Allocator) Length() int {
	return a.length
}

// Generate возвращает случайного кандидата равномерно из Alphabet
func (a *Allocator) Generate() (string, error) {
	result := make([]byte, a.length)
	for i := range result {
		num, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		result[i] = Alphabet[num.Int64()]
	}
	return string(result), nil
}

// Allocate подбирает свободный идентификатор и создаёт ссылку.
// При успехе link.ShortID, ID, CreatedAt заполнены.
func (a *Allocator) Allocate(ctx context.Context, link *models.Link) error {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		candidate, err := a.Generate()
		if err != nil {
			return fmt.Errorf("failed to generate short id: %w", err)
		}

		exists, err := a.links.Exists(ctx, candidate)
		if err != nil {
			return err
		}
		if exists {
			a.logger.Debug("Short id taken, retrying",
				zap.String("short_id", candidate),
				zap.Int("attempt", attempt),
			)
			continue
		}

		link.ShortID = candidate
		err = a.links.Create(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateIdentifier) {
			link.ShortID = ""
			return err
		}

		// Гонка между Exists и Create: другой запрос занял кандидата
		a.logger.Debug("Short id collision on insert, retrying",
			zap.String("short_id", candidate),
			zap.Int("attempt", attempt),
		)
	}

	link.ShortID = ""
	a.logger.Warn("Short id allocation exhausted",
		zap.Int("length", a.length),
		zap.Int("attempts", a.maxAttempts),
	)
	return ErrAllocationExhausted
}

// IsValidShortID проверяет, что строка вообще может быть идентификатором
func IsValidShortID(id string) bool {
	if len(id) == 0 || len(id) > maxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
