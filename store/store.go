// Package store holds the MongoDB repositories behind the API.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("not found")

const (
	colStatuses      = "statuses"
	colStatusUsage   = "status_usage"
	colCategories    = "categories"
	colReceipts      = "receipts"
	colSubscriptions = "subscriptions"
	colPayments      = "payments"
	colBoxes         = "boxes"
	colCampaigns     = "campaigns"
	colInstitutes    = "institutes"
	colUsers         = "users"
)

const queryTimeout = 5 * time.Second

type Store struct {
	db *mongo.Database
}

func New(client *mongo.Client, dbName string) *Store {
	return &Store{db: client.Database(dbName)}
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the indexes the list endpoints rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colReceipts: {
			{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "razorpay_order_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		colSubscriptions: {
			{Keys: bson.D{{Key: "phone", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "type", Value: 1}}},
		},
		colPayments:    {{Keys: bson.D{{Key: "subscription_id", Value: 1}, {Key: "payment_date", Value: -1}}}},
		colStatusUsage: {{Keys: bson.D{{Key: "status_id", Value: 1}, {Key: "used_at", Value: -1}}}},
		colBoxes:       {{Keys: bson.D{{Key: "phone", Value: 1}}}},
		colCategories:  {{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colUsers:       {{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}

	for name, idx := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// notFound maps mongo's no-documents error to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}
