package models

import "time"

// Status состояние подписки пользователя.
type Status string

const (
	// StatusActive текущая подписка пользователя, у пользователя не более одной такой.
	StatusActive Status = "active"
	// StatusCancelled закрытая подписка, EndDate заполнен.
	StatusCancelled Status = "cancelled"
)

// Subscription запись о подписке пользователя на тарифный план.
// EndDate равен nil, пока подписка не закрыта.
type Subscription struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	PlanID    int64      `json:"plan_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"-"`
}

// IsActive сообщает, активна ли подписка.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// SubscriptionDetails подписка вместе с данными тарифа для выдачи списков.
type SubscriptionDetails struct {
	ID        int64      `json:"id"`
	PlanName  string     `json:"plan_name"`
	Price     float64    `json:"price"`
	Interval  Interval   `json:"interval"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Status    Status     `json:"status"`
}

// EventType тип события жизненного цикла подписки.
type EventType string

const (
	// EventSubscribed пользователь оформил подписку.
	EventSubscribed EventType = "subscription.created"
	// EventCancelled пользователь отменил подписку.
	EventCancelled EventType = "subscription.cancelled"
	// EventUpgraded пользователь сменил тариф.
	EventUpgraded EventType = "subscription.upgraded"
)

// SubscriptionEvent сообщение, публикуемое при изменении подписки.
type SubscriptionEvent struct {
	Type           EventType `json:"type"`
	UserID         int64     `json:"user_id"`
	SubscriptionID int64     `json:"subscription_id"`
	PlanID         int64     `json:"plan_id"`
	PreviousID     int64     `json:"previous_subscription_id,omitempty"`
	ProratedAmount float64   `json:"prorated_amount,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
