package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Box is a collection box registered to a donor phone number.
type Box struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SerialNumber    string             `bson:"serial_number" json:"serialNumber"`
	Name            string             `bson:"name" json:"name"`
	Phone           string             `bson:"phone" json:"phone"`
	District        string             `bson:"district,omitempty" json:"district,omitempty"`
	Panchayat       string             `bson:"panchayat,omitempty" json:"panchayat,omitempty"`
	IsActive        bool               `bson:"is_active" json:"isActive"`
	LastPaymentDate *time.Time         `bson:"last_payment_date,omitempty" json:"lastPaymentDate,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
}
