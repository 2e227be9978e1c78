// Package proration считает стоимость неиспользованной части расчётного
// периода при смене тарифа посреди цикла.
package proration

import (
	"math"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

const (
	// DefaultDaysLeft используется, когда у подписки нет даты окончания.
	// Значение месячное даже для годовых тарифов.
	DefaultDaysLeft = 30
	monthlyCycle    = 30
	otherCycle      = 365
)

// DaysLeft возвращает число полных дней до endDate, не меньше нуля.
// Для nil возвращает DefaultDaysLeft.
func DaysLeft(endDate *time.Time, now time.Time) int {
	if endDate == nil {
		return DefaultDaysLeft
	}
	days := int(math.Floor(endDate.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// CycleLength длина расчётного периода тарифа в днях.
func CycleLength(interval models.Interval) int {
	if interval == models.IntervalMonthly {
		return monthlyCycle
	}
	return otherCycle
}

// Amount возвращает стоимость оставшихся дней текущего цикла по старому тарифу
// без округления. Результат носит информационный характер.
func Amount(endDate *time.Time, plan models.Plan, now time.Time) float64 {
	daysLeft := DaysLeft(endDate, now)
	return float64(daysLeft) / float64(CycleLength(plan.Interval)) * plan.Price
}
