package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/donation-portal-go/models"
)

func (s *Store) ListInstitutes(ctx context.Context, q string) ([]models.Institute, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	cursor, err := s.col(colInstitutes).Find(ctx, titleFilter(q), opts)
	if err != nil {
		return nil, err
	}
	institutes := []models.Institute{}
	if err := cursor.All(ctx, &institutes); err != nil {
		return nil, err
	}
	return institutes, nil
}

func (s *Store) GetInstitute(ctx context.Context, id primitive.ObjectID) (*models.Institute, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var inst models.Institute
	if err := s.col(colInstitutes).FindOne(ctx, bson.M{"_id": id}).Decode(&inst); err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

func (s *Store) CreateInstitute(ctx context.Context, inst *models.Institute) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	inst.ID = primitive.NewObjectID()
	inst.CreatedAt = now
	inst.UpdatedAt = now
	if inst.Images == nil {
		inst.Images = []string{}
	}
	_, err := s.col(colInstitutes).InsertOne(ctx, inst)
	return err
}

func (s *Store) UpdateInstitute(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Institute, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var inst models.Institute
	err := s.col(colInstitutes).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&inst)
	if err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

func (s *Store) DeleteInstitute(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.col(colInstitutes).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
