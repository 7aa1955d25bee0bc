package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"

	SubscriptionAuto   = "auto"
	SubscriptionManual = "manual"

	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

type Subscription struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Phone           string             `bson:"phone" json:"phone"`
	Email           string             `bson:"email,omitempty" json:"email,omitempty"`
	Amount          float64            `bson:"amount" json:"amount"`
	Period          string             `bson:"period" json:"period"` // daily, weekly, monthly, yearly
	Type            string             `bson:"type" json:"type"`     // auto, manual
	DonationType    string             `bson:"donation_type" json:"donationType"`
	LastPaymentDate *time.Time         `bson:"last_payment_date,omitempty" json:"lastPaymentDate,omitempty"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Payment struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubscriptionID    primitive.ObjectID `bson:"subscription_id" json:"subscriptionId"`
	Amount            float64            `bson:"amount" json:"amount"`
	PaymentDate       time.Time          `bson:"payment_date" json:"paymentDate"`
	PaymentStatus     string             `bson:"payment_status" json:"paymentStatus"` // completed, failed
	Method            string             `bson:"method" json:"method"`
	RazorpayPaymentID string             `bson:"razorpay_payment_id,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpayOrderID   string             `bson:"razorpay_order_id,omitempty" json:"razorpayOrderId,omitempty"`
}

// DayCount is one bucket of a weekly trend.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type SubscriptionStats struct {
	TotalPaid       float64    `json:"totalPaid"`
	PaymentsCount   int        `json:"paymentsCount"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	NextDueDate     time.Time  `json:"nextDueDate"`
	IsDue           bool       `json:"isDue"`
	WeeklyTrend     []DayCount `json:"weeklyTrend"`
}
