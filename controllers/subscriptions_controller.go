package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	events "github.com/phillip/donation-portal-go/events"
	middleware "github.com/phillip/donation-portal-go/middleware"
	models "github.com/phillip/donation-portal-go/models"
	services "github.com/phillip/donation-portal-go/services"
)

// loadSubscription fetches the :id subscription and checks the caller may see it.
func loadSubscription(env *Env, c *gin.Context) (*models.Subscription, bool) {
	id, ok := parseID(c, "subscription")
	if !ok {
		return nil, false
	}
	sub, err := env.Subscriptions.GetSubscription(c.Request.Context(), id)
	if err != nil {
		storeError(env, c, err, "subscription")
		return nil, false
	}
	if !middleware.CanAccessPhone(c, sub.Phone) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return nil, false
	}
	return sub, true
}

func ListSubscriptions(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone, ok := scopedPhone(c)
		if !ok {
			return
		}
		subs, err := env.Subscriptions.ListSubscriptions(c.Request.Context(), phone)
		if err != nil {
			storeError(env, c, err, "subscriptions")
			return
		}
		c.JSON(http.StatusOK, subs)
	}
}

func CreateSubscription(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name         string  `json:"name" binding:"required"`
			Phone        string  `json:"phone" binding:"required"`
			Email        string  `json:"email" binding:"omitempty,email"`
			Amount       float64 `json:"amount" binding:"required,gt=0"`
			Period       string  `json:"period" binding:"required"`
			Type         string  `json:"type"`
			DonationType string  `json:"donationType"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		phone, ok := parsePhone(c, input.Phone)
		if !ok {
			return
		}
		if !middleware.CanAccessPhone(c, phone) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		period := strings.ToLower(strings.TrimSpace(input.Period))
		if !services.ValidPeriod(period) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "period must be daily, weekly, monthly or yearly"})
			return
		}
		subType := strings.ToLower(strings.TrimSpace(input.Type))
		if subType == "" {
			subType = models.SubscriptionManual
		}
		if subType != models.SubscriptionAuto && subType != models.SubscriptionManual {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be auto or manual"})
			return
		}

		sub := models.Subscription{
			Name:         strings.TrimSpace(input.Name),
			Phone:        phone,
			Email:        input.Email,
			Amount:       input.Amount,
			Period:       period,
			Type:         subType,
			DonationType: input.DonationType,
			Status:       models.SubscriptionActive,
		}
		if sub.DonationType == "" {
			sub.DonationType = "General"
		}

		if err := env.Subscriptions.CreateSubscription(c.Request.Context(), &sub); err != nil {
			storeError(env, c, err, "subscription")
			return
		}
		env.publish(c.Request.Context(), events.SubscriptionCreated, sub)

		c.JSON(http.StatusCreated, sub)
	}
}

func GetSubscription(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := loadSubscription(env, c)
		if !ok {
			return
		}
		payments, err := env.Subscriptions.ListPayments(c.Request.Context(), sub.ID)
		if err != nil {
			storeError(env, c, err, "payments")
			return
		}
		c.JSON(http.StatusOK, gin.H{"subscription": sub, "payments": payments})
	}
}

func SubscriptionStats(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := loadSubscription(env, c)
		if !ok {
			return
		}
		payments, err := env.Subscriptions.ListPayments(c.Request.Context(), sub.ID)
		if err != nil {
			storeError(env, c, err, "payments")
			return
		}
		c.JSON(http.StatusOK, services.SummarizePayments(*sub, payments, env.now()))
	}
}

func CancelSubscription(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := loadSubscription(env, c)
		if !ok {
			return
		}
		if sub.Status == models.SubscriptionCancelled {
			c.JSON(http.StatusConflict, gin.H{"error": "subscription already cancelled"})
			return
		}
		updated, err := env.Subscriptions.UpdateSubscription(c.Request.Context(), sub.ID, bson.M{"status": models.SubscriptionCancelled})
		if err != nil {
			storeError(env, c, err, "subscription")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// PaySubscription records a completed manual payment: a Payment row, a Completed
// receipt, and the new last payment date.
func PaySubscription(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := loadSubscription(env, c)
		if !ok {
			return
		}
		if sub.Status != models.SubscriptionActive {
			c.JSON(http.StatusConflict, gin.H{"error": "subscription is not active"})
			return
		}

		var input struct {
			Amount            float64 `json:"amount" binding:"omitempty,gt=0"`
			Method            string  `json:"method"`
			RazorpayPaymentID string  `json:"razorpayPaymentId"`
			RazorpayOrderID   string  `json:"razorpayOrderId"`
		}
		// the body is optional; an empty one pays the subscription amount
		if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount := input.Amount
		if amount == 0 {
			amount = sub.Amount
		}
		method := input.Method
		if method == "" {
			method = "razorpay"
		}

		ctx := c.Request.Context()
		now := env.now()
		payment := models.Payment{
			SubscriptionID:    sub.ID,
			Amount:            amount,
			PaymentDate:       now,
			PaymentStatus:     services.PaymentCompleted,
			Method:            method,
			RazorpayPaymentID: input.RazorpayPaymentID,
			RazorpayOrderID:   input.RazorpayOrderID,
		}
		if err := env.Subscriptions.CreatePayment(ctx, &payment); err != nil {
			storeError(env, c, err, "payment")
			return
		}

		subID := sub.ID
		receipt := models.Receipt{
			Amount:            amount,
			Type:              "Subscription",
			Name:              sub.Name,
			Phone:             sub.Phone,
			Email:             sub.Email,
			Status:            models.ReceiptCompleted,
			RazorpayPaymentID: input.RazorpayPaymentID,
			RazorpayOrderID:   input.RazorpayOrderID,
			SubscriptionID:    &subID,
			CreatedAt:         now,
		}
		if err := env.Receipts.CreateReceipt(ctx, &receipt); err != nil {
			env.undoPayment(ctx, &payment, nil)
			storeError(env, c, err, "receipt")
			return
		}

		updated, err := env.Subscriptions.UpdateSubscription(ctx, sub.ID, bson.M{"last_payment_date": now})
		if err != nil {
			env.undoPayment(ctx, &payment, &receipt)
			storeError(env, c, err, "subscription")
			return
		}
		env.publish(ctx, events.SubscriptionPaid, payment)

		c.JSON(http.StatusCreated, gin.H{
			"payment":      payment,
			"receipt":      receipt,
			"subscription": updated,
		})
	}
}

// undoPayment removes the rows a failed PaySubscription already wrote, so a payment
// is never counted without its receipt and due date.
func (e *Env) undoPayment(ctx context.Context, payment *models.Payment, receipt *models.Receipt) {
	ctx = context.WithoutCancel(ctx)
	if receipt != nil {
		if err := e.Receipts.DeleteReceipt(ctx, receipt.ID); err != nil {
			e.Logger.Error("failed to roll back receipt", "receipt_id", receipt.ID.Hex(), "error", err)
		}
	}
	if err := e.Subscriptions.DeletePayment(ctx, payment.ID); err != nil {
		e.Logger.Error("failed to roll back payment", "payment_id", payment.ID.Hex(), "error", err)
	}
}
