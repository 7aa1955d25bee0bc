package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusText  = "text"
	StatusImage = "image"
	StatusVideo = "video"
)

type StatusStyle struct {
	BackgroundColor string `bson:"background_color,omitempty" json:"backgroundColor,omitempty"`
	TextColor       string `bson:"text_color,omitempty" json:"textColor,omitempty"`
	FontFamily      string `bson:"font_family,omitempty" json:"fontFamily,omitempty"`
}

// Status is an admin-authored social post shown on the donor site.
type Status struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content    string             `bson:"content" json:"content"`
	Type       string             `bson:"type" json:"type"`
	Category   string             `bson:"category" json:"category"`
	Tags       []string           `bson:"tags" json:"tags"`
	Style      StatusStyle        `bson:"style" json:"style"`
	MediaURL   string             `bson:"media_url,omitempty" json:"mediaUrl,omitempty"`
	Featured   bool               `bson:"featured" json:"featured"`
	IsActive   bool               `bson:"is_active" json:"isActive"`
	UsageCount int64              `bson:"usage_count" json:"usageCount"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

type StatusUsage struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StatusID primitive.ObjectID `bson:"status_id" json:"statusId"`
	UsedAt   time.Time          `bson:"used_at" json:"usedAt"`
}

type StatusStats struct {
	StatusID    string     `json:"statusId"`
	UsageCount  int64      `json:"usageCount"`
	WeeklyTrend []DayCount `json:"weeklyTrend"`
}

type Category struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Slug      string             `bson:"slug" json:"slug"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
