package services

import (
	"time"

	models "github.com/phillip/donation-portal-go/models"
)

const trendDays = 7

// WeeklyTrend counts events per UTC calendar day over the seven days ending today.
// Buckets run oldest first; events outside the window are dropped.
func WeeklyTrend(events []time.Time, now time.Time) []models.DayCount {
	today := truncateDay(now.UTC())
	start := today.AddDate(0, 0, -(trendDays - 1))

	out := make([]models.DayCount, trendDays)
	for i := range out {
		d := start.AddDate(0, 0, i)
		out[i] = models.DayCount{
			Date: d.Format("2006-01-02"),
			Day:  d.Weekday().String()[:3],
		}
	}

	for _, ev := range events {
		d := truncateDay(ev.UTC())
		if d.Before(start) || d.After(today) {
			continue
		}
		idx := int(d.Sub(start).Hours() / 24)
		out[idx].Count++
	}
	return out
}

// SummarizePayments builds the subscription dashboard figures from recorded payments.
func SummarizePayments(sub models.Subscription, payments []models.Payment, now time.Time) models.SubscriptionStats {
	stats := models.SubscriptionStats{}

	var paidAt []time.Time
	for _, p := range payments {
		if p.PaymentStatus != PaymentCompleted {
			continue
		}
		stats.TotalPaid += p.Amount
		stats.PaymentsCount++
		paidAt = append(paidAt, p.PaymentDate)
		if stats.LastPaymentDate == nil || p.PaymentDate.After(*stats.LastPaymentDate) {
			d := p.PaymentDate
			stats.LastPaymentDate = &d
		}
	}
	if stats.LastPaymentDate == nil && sub.LastPaymentDate != nil {
		stats.LastPaymentDate = sub.LastPaymentDate
	}

	anchor := sub.CreatedAt
	if stats.LastPaymentDate != nil {
		anchor = *stats.LastPaymentDate
		stats.NextDueDate = NextDueDate(sub.Period, anchor)
	} else {
		stats.NextDueDate = anchor
	}
	stats.IsDue = sub.Status == models.SubscriptionActive && !stats.NextDueDate.After(now)
	stats.WeeklyTrend = WeeklyTrend(paidAt, now)
	return stats
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
