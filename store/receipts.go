package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/donation-portal-go/models"
)

// receiptFilter is the base query for a donor's receipts; an empty phone means all donors.
func receiptFilter(phone string) bson.M {
	filter := bson.M{}
	if phone != "" {
		filter["phone"] = phone
	}
	return filter
}

// totalsPipeline sums every completed receipt matching phone.
func totalsPipeline(phone string) mongo.Pipeline {
	match := receiptFilter(phone)
	match["status"] = models.ReceiptCompleted
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "total_donations", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

func (s *Store) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	_, err := s.col(colReceipts).InsertOne(ctx, r)
	return err
}

func (s *Store) GetReceipt(ctx context.Context, id primitive.ObjectID) (*models.Receipt, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var r models.Receipt
	if err := s.col(colReceipts).FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ListReceipts returns one page of receipts, newest first, plus the total match count.
func (s *Store) ListReceipts(ctx context.Context, phone string, page, limit int) ([]models.Receipt, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := receiptFilter(phone)
	total, err := s.col(colReceipts).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := s.col(colReceipts).Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	receipts := []models.Receipt{}
	if err := cursor.All(ctx, &receipts); err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

func (s *Store) ReceiptTotals(ctx context.Context, phone string) (models.ReceiptTotals, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := s.col(colReceipts).Aggregate(ctx, totalsPipeline(phone))
	if err != nil {
		return models.ReceiptTotals{}, err
	}
	var rows []models.ReceiptTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return models.ReceiptTotals{}, err
	}
	if len(rows) == 0 {
		return models.ReceiptTotals{}, nil
	}
	return rows[0], nil
}

// UpdateReceipt applies a $set and returns the updated document.
func (s *Store) UpdateReceipt(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Receipt, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r models.Receipt
	err := s.col(colReceipts).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&r)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) DeleteReceipt(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.col(colReceipts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCampaignCredited flags a completed receipt as counted toward its campaign. It
// reports true only for the single call that flips the flag.
func (s *Store) MarkCampaignCredited(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.col(colReceipts).UpdateOne(ctx, creditFilter(id), bson.M{"$set": bson.M{"campaign_credited": true}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func creditFilter(id primitive.ObjectID) bson.M {
	return bson.M{
		"_id":               id,
		"status":            models.ReceiptCompleted,
		"campaign_credited": bson.M{"$ne": true},
	}
}
