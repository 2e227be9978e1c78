// Package models содержит доменные структуры сервиса: пользователей,
// refresh-токены, тарифные планы и подписки пользователей.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           int64     // Идентификатор пользователя
	Username     string    // Имя пользователя (уникальное)
	Email        string    // Электронная почта (уникальная)
	PasswordHash string    // Хэш пароля в формате argon2id
	CreatedAt    time.Time // Дата регистрации
}

// RefreshToken хранит выданный refresh-токен и срок его действия.
// Срок продлевается при каждом успешном обновлении access-токена.
type RefreshToken struct {
	ID        int64
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired сообщает, истёк ли срок действия записи на момент now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
