// Package jobs runs the scheduled background work.
package jobs

import (
	"context"
	"log/slog"
	"time"

	events "github.com/phillip/donation-portal-go/events"
	models "github.com/phillip/donation-portal-go/models"
	services "github.com/phillip/donation-portal-go/services"
	utils "github.com/phillip/donation-portal-go/utils"
)

// Repository is the data the jobs read.
type Repository interface {
	ListActiveManualSubscriptions(ctx context.Context) ([]models.Subscription, error)
}

// Mailer sends a rendered email.
type Mailer interface {
	Enabled() bool
	SendEmail(ctx context.Context, to, toName, subject, body string) error
}

type Jobs struct {
	repo      Repository
	publisher events.Publisher
	mailer    Mailer
	logger    *slog.Logger
	now       func() time.Time
}

func NewJobs(repo Repository, publisher events.Publisher, mailer Mailer, logger *slog.Logger) *Jobs {
	return &Jobs{
		repo:      repo,
		publisher: publisher,
		mailer:    mailer,
		logger:    logger,
		now:       time.Now,
	}
}

// ReminderEvent is the body of a subscription.reminder_due event.
type ReminderEvent struct {
	SubscriptionID string    `json:"subscriptionId"`
	Phone          string    `json:"phone"`
	Amount         float64   `json:"amount"`
	Period         string    `json:"period"`
	DueDate        time.Time `json:"dueDate"`
}

// SendSubscriptionReminders notifies donors whose manual subscription is due.
// A failure for one subscription is logged and the run continues.
func (j *Jobs) SendSubscriptionReminders() {
	j.logger.Info("starting subscription reminder job")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	subs, err := j.repo.ListActiveManualSubscriptions(ctx)
	if err != nil {
		j.logger.Error("failed to list subscriptions", "error", err)
		return
	}

	now := j.now()
	reminded := 0
	for _, sub := range subs {
		if !services.IsDue(sub, now) {
			continue
		}
		if j.remind(ctx, sub) {
			reminded++
		}
	}

	j.logger.Info("subscription reminder job finished", "checked", len(subs), "reminded", reminded)
}

func (j *Jobs) remind(ctx context.Context, sub models.Subscription) bool {
	due := sub.CreatedAt
	if sub.LastPaymentDate != nil {
		due = services.NextDueDate(sub.Period, *sub.LastPaymentDate)
	}
	log := j.logger.With("subscription_id", sub.ID.Hex())

	ok := true
	evt := ReminderEvent{
		SubscriptionID: sub.ID.Hex(),
		Phone:          sub.Phone,
		Amount:         sub.Amount,
		Period:         sub.Period,
		DueDate:        due,
	}
	if err := j.publisher.Publish(ctx, events.ReminderDue, evt); err != nil {
		log.Error("failed to publish reminder event", "error", err)
		ok = false
	}

	if sub.Email == "" || j.mailer == nil || !j.mailer.Enabled() {
		return ok
	}
	body, err := utils.ReminderBody(utils.ReminderData{
		Name:         sub.Name,
		Period:       sub.Period,
		Amount:       sub.Amount,
		DonationType: sub.DonationType,
		Due:          due.Format("2 Jan 2006"),
	})
	if err != nil {
		log.Error("failed to render reminder email", "error", err)
		return false
	}
	if err := j.mailer.SendEmail(ctx, sub.Email, sub.Name, "Your contribution is due", body); err != nil {
		log.Error("failed to send reminder email", "error", err)
		return false
	}
	return ok
}
