package controllers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	auth "github.com/phillip/donation-portal-go/auth"
	events "github.com/phillip/donation-portal-go/events"
	models "github.com/phillip/donation-portal-go/models"
	services "github.com/phillip/donation-portal-go/services"
)

type StatusRepo interface {
	GetStatus(ctx context.Context, id primitive.ObjectID) (*models.Status, error)
	CreateStatus(ctx context.Context, st *models.Status) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Status, error)
	DeleteStatus(ctx context.Context, id primitive.ObjectID) error
	RecordStatusUse(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error)
	StatusUsesSince(ctx context.Context, id primitive.ObjectID, since time.Time) ([]time.Time, error)
}

type CategoryRepo interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
}

type ReceiptRepo interface {
	CreateReceipt(ctx context.Context, r *models.Receipt) error
	GetReceipt(ctx context.Context, id primitive.ObjectID) (*models.Receipt, error)
	ListReceipts(ctx context.Context, phone string, page, limit int) ([]models.Receipt, int64, error)
	ReceiptTotals(ctx context.Context, phone string) (models.ReceiptTotals, error)
	UpdateReceipt(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Receipt, error)
	MarkCampaignCredited(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteReceipt(ctx context.Context, id primitive.ObjectID) error
}

type SubscriptionRepo interface {
	ListSubscriptions(ctx context.Context, phone string) ([]models.Subscription, error)
	GetSubscription(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSubscription(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Subscription, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
	DeletePayment(ctx context.Context, id primitive.ObjectID) error
	ListPayments(ctx context.Context, subscriptionID primitive.ObjectID) ([]models.Payment, error)
}

type BoxRepo interface {
	FindBoxByPhone(ctx context.Context, phone string) (*models.Box, error)
	GetBox(ctx context.Context, id primitive.ObjectID) (*models.Box, error)
}

type CampaignRepo interface {
	ListCampaigns(ctx context.Context, q string) ([]models.Campaign, error)
	GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	CreateCampaign(ctx context.Context, campaign *models.Campaign) error
	UpdateCampaign(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Campaign, error)
	AddCampaignCollection(ctx context.Context, id primitive.ObjectID, amount float64) error
	DeleteCampaign(ctx context.Context, id primitive.ObjectID) error
}

type InstituteRepo interface {
	ListInstitutes(ctx context.Context, q string) ([]models.Institute, error)
	GetInstitute(ctx context.Context, id primitive.ObjectID) (*models.Institute, error)
	CreateInstitute(ctx context.Context, inst *models.Institute) error
	UpdateInstitute(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Institute, error)
	DeleteInstitute(ctx context.Context, id primitive.ObjectID) error
}

type UserRepo interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type OTPService interface {
	Send(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) error
}

// MediaStore keeps uploaded files and hands back their public URL.
type MediaStore interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
	Delete(ctx context.Context, mediaURL string) error
}

// Env is everything the handlers need. In production every repo is the same
// *store.Store; tests fill only the fields they exercise.
type Env struct {
	Statuses      StatusRepo
	Categories    CategoryRepo
	Receipts      ReceiptRepo
	Subscriptions SubscriptionRepo
	Boxes         BoxRepo
	Campaigns     CampaignRepo
	Institutes    InstituteRepo
	Users         UserRepo

	Catalog *services.CatalogCache
	OTP     OTPService
	Issuer  *auth.Issuer
	Media   MediaStore
	Events  events.Publisher
	Logger  *slog.Logger

	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// publish sends an event without failing the request; the write has already happened.
func (e *Env) publish(ctx context.Context, key string, body any) {
	if e.Events == nil {
		return
	}
	if err := e.Events.Publish(ctx, key, body); err != nil {
		e.Logger.Error("failed to publish event", "routing_key", key, "error", err)
	}
}
