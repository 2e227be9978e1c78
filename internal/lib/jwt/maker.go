// Package jwt реализует выпуск и проверку access- и refresh-токенов.
//
// Токены подписываются HS256 симметричным ключом. В claims хранятся
// идентификатор пользователя (sub), время выпуска и истечения, тип токена
// и уникальный jti.
package jwt

import (
	"errors"
	"time"
)

// Kind тип токена, записывается в claim "type".
type Kind string

const (
	// Access короткоживущий токен для доступа к защищённым маршрутам.
	Access Kind = "access"
	// Refresh долгоживущий токен для получения нового access-токена.
	Refresh Kind = "refresh"
)

var (
	// ErrExpiredToken срок действия токена истёк.
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidToken подпись или структура токена некорректны.
	ErrInvalidToken = errors.New("invalid token")
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateToken(userID int64, kind Kind) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
	TTL(kind Kind) time.Duration
}

// MakerImpl реализует Maker на основе секретного ключа и времени жизни токенов.
type MakerImpl struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTMaker создаёт MakerImpl. Настройки передаются явно, глобального состояния нет.
func NewJWTMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// TTL возвращает время жизни токена указанного типа.
func (j *MakerImpl) TTL(kind Kind) time.Duration {
	if kind == Refresh {
		return j.refreshTTL
	}
	return j.accessTTL
}
