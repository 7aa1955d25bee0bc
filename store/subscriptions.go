package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/donation-portal-go/models"
)

func (s *Store) ListSubscriptions(ctx context.Context, phone string) ([]models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if phone != "" {
		filter["phone"] = phone
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col(colSubscriptions).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	subs := []models.Subscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// ListActiveManualSubscriptions feeds the reminder job.
func (s *Store) ListActiveManualSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{"status": models.SubscriptionActive, "type": models.SubscriptionManual}
	cursor, err := s.col(colSubscriptions).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var subs []models.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *Store) GetSubscription(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var sub models.Subscription
	if err := s.col(colSubscriptions).FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	sub.ID = primitive.NewObjectID()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	_, err := s.col(colSubscriptions).InsertOne(ctx, sub)
	return err
}

func (s *Store) UpdateSubscription(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Subscription, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sub models.Subscription
	err := s.col(colSubscriptions).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&sub)
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p.ID = primitive.NewObjectID()
	_, err := s.col(colPayments).InsertOne(ctx, p)
	return err
}

func (s *Store) DeletePayment(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.col(colPayments).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, subscriptionID primitive.ObjectID) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "payment_date", Value: -1}})
	cursor, err := s.col(colPayments).Find(ctx, bson.M{"subscription_id": subscriptionID}, opts)
	if err != nil {
		return nil, err
	}
	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
