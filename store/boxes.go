package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/donation-portal-go/models"
)

func (s *Store) FindBoxByPhone(ctx context.Context, phone string) (*models.Box, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var box models.Box
	if err := s.col(colBoxes).FindOne(ctx, bson.M{"phone": phone}).Decode(&box); err != nil {
		return nil, notFound(err)
	}
	return &box, nil
}

func (s *Store) GetBox(ctx context.Context, id primitive.ObjectID) (*models.Box, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var box models.Box
	if err := s.col(colBoxes).FindOne(ctx, bson.M{"_id": id}).Decode(&box); err != nil {
		return nil, notFound(err)
	}
	return &box, nil
}
