// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/password"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

var (
	// ErrDuplicateUsername имя пользователя уже занято.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail email уже занят.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrInvalidCredentials неизвестное имя пользователя или неверный пароль.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidOrExpiredRefreshToken refresh-токен не разобран, истёк или не выдавался.
	ErrInvalidOrExpiredRefreshToken = errors.New("invalid or expired refresh token")
	// ErrInvalidTokenType тип токена не совпадает с ожидаемым.
	ErrInvalidTokenType = errors.New("invalid token type")
	// ErrUserNotFound пользователь из токена больше не существует.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int64, error)
	// UserExists сообщает, заняты ли имя пользователя и email.
	UserExists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	// GetUserByUsername возвращает пользователя по имени или storage.ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUserByID возвращает пользователя по ID или storage.ErrNotFound.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// TokenRepository хранит выданные refresh-токены.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token models.RefreshToken) (int64, error)
	GetRefreshToken(ctx context.Context, token string, userID int64) (*models.RefreshToken, error)
	ExtendRefreshToken(ctx context.Context, id int64, expiresAt time.Time) error
}

// TokenPair пара токенов, которую получает клиент после входа или обновления.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService отвечает за регистрацию, вход, обновление токенов и проверку access-токенов.
type AuthService struct {
	users    UserRepository
	tokens   TokenRepository
	jwtMaker jwt.Maker
	now      func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, tokens TokenRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		jwtMaker: jwtMaker,
		now:      time.Now,
	}
}

// Register создает нового пользователя с хэшированием пароля и возвращает его ID.
func (s *AuthService) Register(ctx context.Context, username, rawPassword, email string) (int64, error) {
	const op = "services.auth.Register"

	usernameTaken, emailTaken, err := s.users.UserExists(ctx, username, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if usernameTaken {
		return 0, fmt.Errorf("%s: %w", op, ErrDuplicateUsername)
	}
	if emailTaken {
		return 0, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.users.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	})
	switch {
	case errors.Is(err, storage.ErrUsernameExists):
		return 0, fmt.Errorf("%s: %w", op, ErrDuplicateUsername)
	case errors.Is(err, storage.ErrEmailExists):
		return 0, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	case err != nil:
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Login проверяет пароль пользователя, выпускает access- и refresh-токены
// и сохраняет refresh-токен со сроком действия.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (*TokenPair, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, err := s.jwtMaker.GenerateToken(user.ID, jwt.Access)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := s.jwtMaker.GenerateToken(user.ID, jwt.Refresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.tokens.SaveRefreshToken(ctx, models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.jwtMaker.TTL(jwt.Refresh)),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh выпускает новый access-токен по действующему refresh-токену.
//
// Сохранённая запись продлевается на refreshTTL от текущего момента, клиент
// получает обратно тот же refresh-токен. Тип токена не проверяется: для
// access-токена сохранённой записи нет, и он отклоняется на поиске.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	const op = "services.auth.Refresh"

	claims, err := s.jwtMaker.ParseToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidOrExpiredRefreshToken, err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredRefreshToken)
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stored, err := s.tokens.GetRefreshToken(ctx, refreshToken, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredRefreshToken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	if stored.Expired(now) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredRefreshToken)
	}

	access, err := s.jwtMaker.GenerateToken(userID, jwt.Access)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.tokens.ExtendRefreshToken(ctx, stored.ID, now.Add(s.jwtMaker.TTL(jwt.Refresh))); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Authenticate проверяет токен, его тип и возвращает владельца.
//
// Ошибки: jwt.ErrExpiredToken, jwt.ErrInvalidToken, ErrInvalidTokenType, ErrUserNotFound.
func (s *AuthService) Authenticate(ctx context.Context, token string, kind jwt.Kind) (*models.User, error) {
	const op = "services.auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTokenType)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
