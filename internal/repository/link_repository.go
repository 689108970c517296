package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/shortener-auth/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrLinkNotFound        = errors.New("link not found")
	ErrDuplicateIdentifier = errors.New("short id already exists")
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	FindByShortID(ctx context.Context, shortID string) (*models.Link, error)
	// RecordUse атомарно увеличивает clicks и обновляет last_used_at
	RecordUse(ctx context.Context, shortID string) error
	Exists(ctx context.Context, shortID string) (bool, error)
	ListByOwner(ctx context.Context, owner string, limit int) ([]*models.Link, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, short_id, original_url, created_at, last_used_at, clicks, owner_email`

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (short_id, original_url, owner_email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, last_used_at, clicks
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ShortID,
		link.OriginalURL,
		link.Owner,
	).Scan(&link.ID, &link.CreatedAt, &link.LastUsedAt, &link.Clicks)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIdentifier
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) FindByShortID(ctx context.Context, shortID string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_id = $1`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, shortID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) RecordUse(ctx context.Context, shortID string) error {
	query := `
		UPDATE links
		SET clicks = clicks + 1, last_used_at = NOW()
		WHERE short_id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, shortID)
	if err != nil {
		return fmt.Errorf("failed to record link use: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) Exists(ctx context.Context, shortID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_id = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, shortID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short id: %w", err)
	}

	return exists, nil
}

func (r *linkRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*models.Link, error) {
	query := `SELECT ` + linkColumns + `
		FROM links
		WHERE owner_email = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Pool.Query(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := make([]*models.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.ShortID,
		&link.OriginalURL,
		&link.CreatedAt,
		&link.LastUsedAt,
		&link.Clicks,
		&link.Owner,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}
