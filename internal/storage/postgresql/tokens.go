package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

// SaveRefreshToken сохраняет выданный refresh-токен.
func (s *Storage) SaveRefreshToken(ctx context.Context, token models.RefreshToken) (int64, error) {
	const op = "storage.postgresql.SaveRefreshToken"

	query := `INSERT INTO refresh_tokens (token, user_id, expires_at)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query, token.Token, token.UserID, token.ExpiresAt).Scan(&id)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrTokenExists)
		}
		if foreignKeyViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetRefreshToken ищет запись токена, выданного указанному пользователю.
func (s *Storage) GetRefreshToken(ctx context.Context, token string, userID int64) (*models.RefreshToken, error) {
	const op = "storage.postgresql.GetRefreshToken"

	query := `SELECT id, token, user_id, expires_at, created_at
			  FROM refresh_tokens
			  WHERE token = $1 AND user_id = $2`
	var rt models.RefreshToken
	err := s.DB.QueryRowContext(ctx, query, token, userID).
		Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &rt, nil
}

// ExtendRefreshToken переносит срок действия токена на expiresAt.
func (s *Storage) ExtendRefreshToken(ctx context.Context, id int64, expiresAt time.Time) error {
	const op = "storage.postgresql.ExtendRefreshToken"

	res, err := s.DB.ExecContext(ctx, `UPDATE refresh_tokens SET expires_at = $1 WHERE id = $2`, expiresAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}
