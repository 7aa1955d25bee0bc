package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinates struct for latitude and longitude
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Institute is an organisation donors can sponsor.
type Institute struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Coordinates  Coordinates        `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	LocationName string             `bson:"location_name,omitempty" json:"locationName,omitempty"`
	Images       []string           `bson:"images" json:"images"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}
