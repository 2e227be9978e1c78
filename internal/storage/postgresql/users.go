package postgresql

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

// CreateUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.postgresql.CreateUser"

	query := `INSERT INTO users (username, email, password_hash)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).Scan(&id)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case "users_username_key":
				return 0, fmt.Errorf("%s: %w", op, storage.ErrUsernameExists)
			case "users_email_key":
				return 0, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
			}
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UserExists сообщает, заняты ли имя пользователя и email.
func (s *Storage) UserExists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	const op = "storage.postgresql.UserExists"

	query := `SELECT
			      EXISTS (SELECT 1 FROM users WHERE username = $1),
			      EXISTS (SELECT 1 FROM users WHERE email = $2)`
	if err := s.DB.QueryRowContext(ctx, query, username, email).Scan(&usernameTaken, &emailTaken); err != nil {
		return false, false, fmt.Errorf("%s: %w", op, err)
	}
	return usernameTaken, emailTaken, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgresql.GetUserByUsername"

	query := `SELECT id, username, email, password_hash, created_at
			  FROM users
			  WHERE username = $1`
	var u models.User
	err := s.DB.QueryRowContext(ctx, query, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.postgresql.GetUserByID"

	query := `SELECT id, username, email, password_hash, created_at
			  FROM users
			  WHERE id = $1`
	var u models.User
	err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &u, nil
}
