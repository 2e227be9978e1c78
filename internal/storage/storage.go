// Package storage описывает ошибки слоя хранения, общие для всех реализаций.
package storage

import "errors"

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrUsernameExists имя пользователя занято.
	ErrUsernameExists = errors.New("username already exists")
	// ErrEmailExists email занят.
	ErrEmailExists = errors.New("email already exists")
	// ErrTokenExists такой refresh-токен уже сохранён.
	ErrTokenExists = errors.New("refresh token already exists")
	// ErrActiveSubscriptionExists у пользователя уже есть активная подписка.
	ErrActiveSubscriptionExists = errors.New("active subscription already exists")
	// ErrNotActive подписка уже не активна.
	ErrNotActive = errors.New("subscription is not active")
)
