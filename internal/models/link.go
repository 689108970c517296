package models

import (
	"time"
)

type Link struct {
	ID          int64      `json:"id"`
	ShortID     string     `json:"short_id"`
	OriginalURL string     `json:"original_url"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	Clicks      int64      `json:"clicks"`
	Owner       *string    `json:"owner,omitempty"`
}

type CreateLinkInput struct {
	OriginalURL string  `json:"original_url"`
	Owner       *string `json:"owner,omitempty"`
}

// OwnedBy true, если ссылка создана указанным пользователем
func (l *Link) OwnedBy(email string) bool {
	return l.Owner != nil && *l.Owner == email
}
