package models

import "time"

// Interval период списания по тарифному плану.
type Interval string

const (
	// IntervalMonthly ежемесячный тариф.
	IntervalMonthly Interval = "monthly"
	// IntervalYearly ежегодный тариф.
	IntervalYearly Interval = "yearly"
)

// Plan описывает тарифный план подписки.
type Plan struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Interval    Interval  `json:"interval"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"-"`
}
