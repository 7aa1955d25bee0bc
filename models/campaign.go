package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Campaign struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Location        string             `bson:"location,omitempty" json:"location,omitempty"`
	TargetAmount    float64            `bson:"target_amount,omitempty" json:"targetAmount,omitempty"`
	CollectedAmount float64            `bson:"collected_amount" json:"collectedAmount"`
	Deadline        *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Status          string             `bson:"status" json:"status"` // ACTIVE, CLOSED, ARCHIVED
	Images          []string           `bson:"images" json:"images"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}
