package store

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/donation-portal-go/models"
)

// titleFilter matches q anywhere in the title, case-insensitively. q is taken literally.
func titleFilter(q string) bson.M {
	filter := bson.M{}
	if q != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}
	return filter
}

func (s *Store) ListCampaigns(ctx context.Context, q string) ([]models.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col(colCampaigns).Find(ctx, titleFilter(q), opts)
	if err != nil {
		return nil, err
	}
	campaigns := []models.Campaign{}
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (s *Store) GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var campaign models.Campaign
	if err := s.col(colCampaigns).FindOne(ctx, bson.M{"_id": id}).Decode(&campaign); err != nil {
		return nil, notFound(err)
	}
	return &campaign, nil
}

func (s *Store) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	campaign.ID = primitive.NewObjectID()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	if campaign.Images == nil {
		campaign.Images = []string{}
	}
	_, err := s.col(colCampaigns).InsertOne(ctx, campaign)
	return err
}

func (s *Store) UpdateCampaign(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Campaign, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var campaign models.Campaign
	err := s.col(colCampaigns).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&campaign)
	if err != nil {
		return nil, notFound(err)
	}
	return &campaign, nil
}

// AddCampaignCollection adds amount to a campaign's collected total.
func (s *Store) AddCampaignCollection(ctx context.Context, id primitive.ObjectID, amount float64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.col(colCampaigns).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"collected_amount": amount},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCampaign(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.col(colCampaigns).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
