package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

const activeSubscriptionIndex = "uniq_user_subscriptions_one_active"

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateSubscription открывает активную подписку пользователя на план.
//
// Гонка двух одновременных подписок разрешается частичным уникальным индексом,
// проигравший получает storage.ErrActiveSubscriptionExists.
func (s *Storage) CreateSubscription(ctx context.Context, userID, planID int64, startDate time.Time) (*models.Subscription, error) {
	const op = "storage.postgresql.CreateSubscription"

	sub, err := insertSubscription(ctx, s.DB, userID, planID, startDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func insertSubscription(ctx context.Context, q queryRower, userID, planID int64, startDate time.Time) (*models.Subscription, error) {
	query := `INSERT INTO user_subscriptions (user_id, plan_id, start_date, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at`
	sub := &models.Subscription{
		UserID:    userID,
		PlanID:    planID,
		StartDate: startDate,
		Status:    models.StatusActive,
	}
	err := q.QueryRowContext(ctx, query, userID, planID, startDate, string(models.StatusActive)).
		Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == activeSubscriptionIndex {
			return nil, storage.ErrActiveSubscriptionExists
		}
		if foreignKeyViolation(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

// GetSubscription возвращает подписку по ID, только если она принадлежит userID.
func (s *Storage) GetSubscription(ctx context.Context, id, userID int64) (*models.Subscription, error) {
	const op = "storage.postgresql.GetSubscription"

	query := `SELECT id, user_id, plan_id, start_date, end_date, status, created_at
			  FROM user_subscriptions
			  WHERE id = $1 AND user_id = $2`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return sub, nil
}

// GetActiveSubscription возвращает текущую активную подписку пользователя.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.postgresql.GetActiveSubscription"

	query := `SELECT id, user_id, plan_id, start_date, end_date, status, created_at
			  FROM user_subscriptions
			  WHERE user_id = $1 AND status = $2`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID, string(models.StatusActive)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return sub, nil
}

func scanSubscription(row *sql.Row) (*models.Subscription, error) {
	var sub models.Subscription
	var endDate sql.NullTime
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.StartDate, &endDate,
		&sub.Status, &sub.CreatedAt); err != nil {
		return nil, err
	}
	if endDate.Valid {
		sub.EndDate = &endDate.Time
	}
	return &sub, nil
}

// CancelSubscription закрывает активную подписку датой endDate.
func (s *Storage) CancelSubscription(ctx context.Context, id, userID int64, endDate time.Time) error {
	const op = "storage.postgresql.CancelSubscription"

	if err := closeSubscription(ctx, s.DB, id, userID, endDate); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func closeSubscription(ctx context.Context, e execer, id, userID int64, endDate time.Time) error {
	query := `UPDATE user_subscriptions
			  SET status = $1, end_date = $2
			  WHERE id = $3 AND user_id = $4 AND status = $5`
	res, err := e.ExecContext(ctx, query, string(models.StatusCancelled), endDate, id, userID, string(models.StatusActive))
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return storage.ErrNotActive
	}
	return nil
}

// ReplaceSubscription в одной транзакции закрывает подписку oldID и открывает
// новую активную подписку на newPlanID с датой начала at.
func (s *Storage) ReplaceSubscription(ctx context.Context, oldID, userID, newPlanID int64, at time.Time) (*models.Subscription, error) {
	const op = "storage.postgresql.ReplaceSubscription"

	var created *models.Subscription
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := closeSubscription(ctx, tx, oldID, userID, at); err != nil {
			return err
		}
		sub, err := insertSubscription(ctx, tx, userID, newPlanID, at)
		if err != nil {
			return err
		}
		created = sub
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ListSubscriptions возвращает подписки пользователя вместе с данными тарифа,
// новые первыми. При activeOnly возвращаются только активные.
func (s *Storage) ListSubscriptions(ctx context.Context, userID int64, activeOnly bool) ([]models.SubscriptionDetails, error) {
	const op = "storage.postgresql.ListSubscriptions"

	query := `SELECT us.id, sp.name, sp.price::float8, sp.interval, us.start_date, us.end_date, us.status
			  FROM user_subscriptions us
			  JOIN subscription_plans sp ON us.plan_id = sp.id
			  WHERE us.user_id = $1
			    AND (NOT $2::boolean OR us.status = 'active')
			  ORDER BY us.start_date DESC, us.id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.SubscriptionDetails, 0)
	for rows.Next() {
		var d models.SubscriptionDetails
		var endDate sql.NullTime
		if err := rows.Scan(&d.ID, &d.PlanName, &d.Price, &d.Interval, &d.StartDate, &endDate, &d.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if endDate.Valid {
			d.EndDate = &endDate.Time
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
