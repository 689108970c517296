package models

import "time"

// User учётная запись; пароль хранится только в виде хэша
type User struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
