// Package services содержит бизнес-логику для управления тарифами и подписками пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/proration"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

var (
	// ErrPlanNotFound тарифный план не найден.
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrAlreadySubscribed у пользователя уже есть активная подписка.
	ErrAlreadySubscribed = errors.New("user already has an active subscription")
	// ErrNotFound подписка не найдена или принадлежит другому пользователю.
	ErrNotFound = errors.New("subscription not found or does not belong to the user")
	// ErrNotActive подписка уже отменена.
	ErrNotActive = errors.New("subscription is not active")
	// ErrForbidden запрошены подписки другого пользователя.
	ErrForbidden = errors.New("unauthorized to view these subscriptions")
)

// SubscriptionRepository определяет методы для работы с тарифами и подписками в хранилище.
type SubscriptionRepository interface {
	// ListPlans возвращает все тарифы.
	ListPlans(ctx context.Context) ([]models.Plan, error)
	// GetPlan возвращает тариф по ID или storage.ErrNotFound.
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	// CreateSubscription создаёт активную подписку.
	CreateSubscription(ctx context.Context, userID, planID int64, startDate time.Time) (*models.Subscription, error)
	// GetSubscription возвращает подписку пользователя по ID.
	GetSubscription(ctx context.Context, id, userID int64) (*models.Subscription, error)
	// GetActiveSubscription возвращает активную подписку пользователя.
	GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	// CancelSubscription закрывает активную подписку датой endDate.
	CancelSubscription(ctx context.Context, id, userID int64, endDate time.Time) error
	// ReplaceSubscription в одной транзакции закрывает подписку и открывает новую на другом тарифе.
	ReplaceSubscription(ctx context.Context, oldID, userID, newPlanID int64, at time.Time) (*models.Subscription, error)
	// ListSubscriptions возвращает подписки пользователя с данными тарифа.
	ListSubscriptions(ctx context.Context, userID int64, activeOnly bool) ([]models.SubscriptionDetails, error)
}

// Publisher отправляет события жизненного цикла подписок.
type Publisher interface {
	Publish(ctx context.Context, event models.SubscriptionEvent) error
}

// SubscribeResult результат оформления подписки.
type SubscribeResult struct {
	Plan         *models.Plan
	Subscription *models.Subscription
}

// UpgradeResult результат смены тарифа. ProratedAmount носит информационный
// характер и нигде не списывается.
type UpgradeResult struct {
	Plan           *models.Plan
	Subscription   *models.Subscription
	ProratedAmount float64
}

// SubscriptionService реализует бизнес-логику работы с подписками.
type SubscriptionService struct {
	repo      SubscriptionRepository
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, publisher Publisher, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// ListPlans возвращает все тарифные планы.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	const op = "services.subscription.ListPlans"

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// Subscribe оформляет подписку пользователя на тариф.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, planID int64) (*SubscribeResult, error) {
	const op = "services.subscription.Subscribe"

	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.repo.GetActiveSubscription(ctx, userID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	sub, err := s.repo.CreateSubscription(ctx, userID, plan.ID, now)
	switch {
	case errors.Is(err, storage.ErrActiveSubscriptionExists):
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, models.SubscriptionEvent{
		Type:           models.EventSubscribed,
		UserID:         userID,
		SubscriptionID: sub.ID,
		PlanID:         plan.ID,
		OccurredAt:     now,
	})
	return &SubscribeResult{Plan: plan, Subscription: sub}, nil
}

// Cancel отменяет активную подписку пользователя.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, subscriptionID int64) error {
	const op = "services.subscription.Cancel"

	sub, err := s.getOwned(ctx, subscriptionID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !sub.IsActive() {
		return fmt.Errorf("%s: %w", op, ErrNotActive)
	}

	now := s.now().UTC()
	if err := s.repo.CancelSubscription(ctx, sub.ID, userID, now); err != nil {
		if errors.Is(err, storage.ErrNotActive) {
			return fmt.Errorf("%s: %w", op, ErrNotActive)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, models.SubscriptionEvent{
		Type:           models.EventCancelled,
		UserID:         userID,
		SubscriptionID: sub.ID,
		PlanID:         sub.PlanID,
		OccurredAt:     now,
	})
	return nil
}

// Upgrade переводит активную подписку на новый тариф.
//
// Проверки выполняются в порядке: тариф, подписка, её статус. Стоимость
// неиспользованных дней считается по старому тарифу.
func (s *SubscriptionService) Upgrade(ctx context.Context, userID, subscriptionID, newPlanID int64) (*UpgradeResult, error) {
	const op = "services.subscription.Upgrade"

	newPlan, err := s.getPlan(ctx, newPlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	old, err := s.getOwned(ctx, subscriptionID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !old.IsActive() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotActive)
	}

	oldPlan, err := s.repo.GetPlan(ctx, old.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	amount := proration.Amount(old.EndDate, *oldPlan, now)

	sub, err := s.repo.ReplaceSubscription(ctx, old.ID, userID, newPlan.ID, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotActive) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotActive)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, models.SubscriptionEvent{
		Type:           models.EventUpgraded,
		UserID:         userID,
		SubscriptionID: sub.ID,
		PlanID:         newPlan.ID,
		PreviousID:     old.ID,
		ProratedAmount: amount,
		OccurredAt:     now,
	})
	return &UpgradeResult{Plan: newPlan, Subscription: sub, ProratedAmount: amount}, nil
}

// ListActive возвращает активные подписки пользователя.
func (s *SubscriptionService) ListActive(ctx context.Context, userID int64) ([]models.SubscriptionDetails, error) {
	const op = "services.subscription.ListActive"

	subs, err := s.repo.ListSubscriptions(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// ListForUser возвращает всю историю подписок targetUserID.
// Смотреть можно только свои подписки, существование чужих не раскрывается.
func (s *SubscriptionService) ListForUser(ctx context.Context, requesterID, targetUserID int64) ([]models.SubscriptionDetails, error) {
	const op = "services.subscription.ListForUser"

	if requesterID != targetUserID {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	subs, err := s.repo.ListSubscriptions(ctx, targetUserID, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

func (s *SubscriptionService) getPlan(ctx context.Context, id int64) (*models.Plan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *SubscriptionService) getOwned(ctx context.Context, id, userID int64) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

// publish отправляет событие. Ошибка доставки только логируется.
func (s *SubscriptionService) publish(ctx context.Context, event models.SubscriptionEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish subscription event",
			slog.String("type", string(event.Type)),
			slog.Int64("subscription_id", event.SubscriptionID),
			sl.Err(err),
		)
	}
}
