package services

import (
	"time"

	models "github.com/phillip/donation-portal-go/models"
)

const (
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// ValidPeriod reports whether p is a supported subscription period.
func ValidPeriod(p string) bool {
	switch p {
	case models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly, models.PeriodYearly:
		return true
	}
	return false
}

// NextDueDate is one period after last. Unknown periods are treated as monthly.
func NextDueDate(period string, last time.Time) time.Time {
	switch period {
	case models.PeriodDaily:
		return last.AddDate(0, 0, 1)
	case models.PeriodWeekly:
		return last.AddDate(0, 0, 7)
	case models.PeriodYearly:
		return last.AddDate(1, 0, 0)
	default:
		return last.AddDate(0, 1, 0)
	}
}

// IsDue reports whether an active manual subscription should be reminded at now.
// A subscription that was never paid is due from its creation.
func IsDue(sub models.Subscription, now time.Time) bool {
	if sub.Status != models.SubscriptionActive || sub.Type != models.SubscriptionManual {
		return false
	}
	if sub.LastPaymentDate == nil {
		return !sub.CreatedAt.After(now)
	}
	return !NextDueDate(sub.Period, *sub.LastPaymentDate).After(now)
}
