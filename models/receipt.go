package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReceiptCompleted = "Completed"
	ReceiptPending   = "Pending"
)

type Receipt struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Amount            float64             `bson:"amount" json:"amount"`
	Type              string              `bson:"type" json:"type"` // General, Campaign, Institute, Box, Subscription
	Name              string              `bson:"name" json:"name"`
	Phone             string              `bson:"phone" json:"phone"`
	Email             string              `bson:"email,omitempty" json:"email,omitempty"`
	Status            string              `bson:"status" json:"status"` // Completed, Pending
	RazorpayPaymentID string              `bson:"razorpay_payment_id,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpayOrderID   string              `bson:"razorpay_order_id,omitempty" json:"razorpayOrderId,omitempty"`
	District          string              `bson:"district,omitempty" json:"district,omitempty"`
	Panchayat         string              `bson:"panchayat,omitempty" json:"panchayat,omitempty"`
	BoxID             *primitive.ObjectID `bson:"box_id,omitempty" json:"boxId,omitempty"`
	CampaignID        *primitive.ObjectID `bson:"campaign_id,omitempty" json:"campaignId,omitempty"`
	InstituteID       *primitive.ObjectID `bson:"institute_id,omitempty" json:"instituteId,omitempty"`
	SubscriptionID    *primitive.ObjectID `bson:"subscription_id,omitempty" json:"subscriptionId,omitempty"`
	CampaignCredited  bool                `bson:"campaign_credited,omitempty" json:"-"`
	CreatedAt         time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updatedAt"`
}

type Pagination struct {
	TotalPages    int   `json:"totalPages"`
	CurrentPage   int   `json:"currentPage"`
	TotalReceipts int64 `json:"totalReceipts"`
}

// ReceiptTotals are aggregated over every completed receipt of a donor, not a single page.
type ReceiptTotals struct {
	TotalAmount    float64 `bson:"total_amount" json:"totalAmount"`
	TotalDonations int64   `bson:"total_donations" json:"totalDonations"`
}

// ReceiptPage is the body of GET /api/receipts.
type ReceiptPage struct {
	Receipts   []Receipt     `json:"receipts"`
	Pagination Pagination    `json:"pagination"`
	Totals     ReceiptTotals `json:"totals"`
}
