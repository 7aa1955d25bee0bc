package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/donation-portal-go/models"
)

func (s *Store) ListStatuses(ctx context.Context) ([]models.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := s.col(colStatuses).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	statuses := []models.Status{}
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (s *Store) GetStatus(ctx context.Context, id primitive.ObjectID) (*models.Status, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var st models.Status
	if err := s.col(colStatuses).FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}

func (s *Store) CreateStatus(ctx context.Context, st *models.Status) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	st.ID = primitive.NewObjectID()
	st.CreatedAt = now
	st.UpdatedAt = now
	if st.Tags == nil {
		st.Tags = []string{}
	}
	_, err := s.col(colStatuses).InsertOne(ctx, st)
	return err
}

func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Status, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var st models.Status
	err := s.col(colStatuses).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&st)
	if err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}

func (s *Store) DeleteStatus(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.col(colStatuses).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = s.col(colStatusUsage).DeleteMany(ctx, bson.M{"status_id": id})
	return err
}

// RecordStatusUse bumps the usage counter and stores the use as an event.
func (s *Store) RecordStatusUse(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var st models.Status
	err := s.col(colStatuses).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"usage_count": 1}},
		opts,
	).Decode(&st)
	if err != nil {
		return 0, notFound(err)
	}

	usage := models.StatusUsage{ID: primitive.NewObjectID(), StatusID: id, UsedAt: at}
	if _, err := s.col(colStatusUsage).InsertOne(ctx, usage); err != nil {
		return 0, err
	}
	return st.UsageCount, nil
}

// StatusUsesSince returns the timestamps of every recorded use at or after since.
func (s *Store) StatusUsesSince(ctx context.Context, id primitive.ObjectID, since time.Time) ([]time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"status_id": id, "used_at": bson.M{"$gte": since}}
	opts := options.Find().SetProjection(bson.M{"used_at": 1})
	cursor, err := s.col(colStatusUsage).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var rows []models.StatusUsage
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.UsedAt)
	}
	return out, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.col(colCategories).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	_, err := s.col(colCategories).InsertOne(ctx, c)
	return err
}

func (s *Store) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.col(colCategories).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
