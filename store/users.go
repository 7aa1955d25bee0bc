package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/donation-portal-go/models"
)

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.col(colUsers).FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// EnsureAdmin creates the admin account if no user has that email yet. An existing
// account is left untouched.
func (s *Store) EnsureAdmin(ctx context.Context, email, passwordHash string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, errors.New("admin email is empty")
	}

	opts := options.Update().SetUpsert(true)
	res, err := s.col(colUsers).UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": models.User{
			ID:           primitive.NewObjectID(),
			Email:        email,
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
			CreatedAt:    time.Now(),
		}},
		opts,
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
