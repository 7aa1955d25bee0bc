package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	events "github.com/phillip/donation-portal-go/events"
	middleware "github.com/phillip/donation-portal-go/middleware"
	models "github.com/phillip/donation-portal-go/models"
	receipts "github.com/phillip/donation-portal-go/receipts"
	store "github.com/phillip/donation-portal-go/store"
)

const maxReceiptPageSize = 50

// pageParams reads page and limit, falling back to the first page of the default size.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = receipts.PageSize
	}
	if limit > maxReceiptPageSize {
		limit = maxReceiptPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// scopedPhone resolves whose records are being read. Donors default to their own
// phone and may not read anyone else's; admins may list every receipt.
func scopedPhone(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Query("phone"))
	if raw == "" {
		if middleware.IsAdmin(c) {
			return "", true
		}
		raw = c.GetString(middleware.KeyPhone)
	}
	phone, ok := parsePhone(c, raw)
	if !ok {
		return "", false
	}
	if !middleware.CanAccessPhone(c, phone) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return "", false
	}
	return phone, true
}

// ---------------- LIST ----------------
func ListReceipts(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone, ok := scopedPhone(c)
		if !ok {
			return
		}
		page, limit := pageParams(c)

		var criteria receipts.Criteria
		_ = c.ShouldBindQuery(&criteria)
		tab := receipts.ParseTab(c.Query("tab"))

		ctx := c.Request.Context()
		list, total, err := env.Receipts.ListReceipts(ctx, phone, page, limit)
		if err != nil {
			storeError(env, c, err, "receipts")
			return
		}
		totals, err := env.Receipts.ReceiptTotals(ctx, phone)
		if err != nil {
			storeError(env, c, err, "receipt totals")
			return
		}

		c.JSON(http.StatusOK, models.ReceiptPage{
			Receipts: receipts.Apply(list, tab, criteria),
			Pagination: models.Pagination{
				TotalPages:    totalPages(total, limit),
				CurrentPage:   page,
				TotalReceipts: total,
			},
			Totals: totals,
		})
	}
}

// ---------------- GET ----------------
func GetReceipt(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "receipt")
		if !ok {
			return
		}
		r, err := env.Receipts.GetReceipt(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "receipt")
			return
		}
		if !middleware.CanAccessPhone(c, r.Phone) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

type receiptInput struct {
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	Type            string  `json:"type"`
	Name            string  `json:"name" binding:"required"`
	Phone           string  `json:"phone" binding:"required"`
	Email           string  `json:"email" binding:"omitempty,email"`
	District        string  `json:"district"`
	Panchayat       string  `json:"panchayat"`
	RazorpayOrderID string  `json:"razorpayOrderId"`
	CampaignID      string  `json:"campaignId"`
	InstituteID     string  `json:"instituteId"`
	BoxID           string  `json:"boxId"`
}

func optionalID(raw string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ---------------- CREATE ----------------
// CreateReceipt records a donation as Pending until the payment is confirmed.
func CreateReceipt(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input receiptInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		phone, ok := parsePhone(c, input.Phone)
		if !ok {
			return
		}

		r := models.Receipt{
			Amount:          input.Amount,
			Type:            strings.TrimSpace(input.Type),
			Name:            strings.TrimSpace(input.Name),
			Phone:           phone,
			Email:           input.Email,
			Status:          models.ReceiptPending,
			RazorpayOrderID: input.RazorpayOrderID,
			District:        input.District,
			Panchayat:       input.Panchayat,
		}
		if r.Type == "" {
			r.Type = "General"
		}

		var err error
		if r.CampaignID, err = optionalID(input.CampaignID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}
		if r.InstituteID, err = optionalID(input.InstituteID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid institute id"})
			return
		}
		if r.BoxID, err = optionalID(input.BoxID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid box id"})
			return
		}

		if r.CampaignID != nil {
			if _, err := env.Campaigns.GetCampaign(c.Request.Context(), *r.CampaignID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					c.JSON(http.StatusBadRequest, gin.H{"error": "campaign not found"})
					return
				}
				storeError(env, c, err, "campaign")
				return
			}
		}

		if err := env.Receipts.CreateReceipt(c.Request.Context(), &r); err != nil {
			storeError(env, c, err, "receipt")
			return
		}
		env.publish(c.Request.Context(), events.ReceiptCreated, r)

		c.JSON(http.StatusCreated, r)
	}
}

// ---------------- UPDATE ----------------
func UpdateReceipt(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "receipt")
		if !ok {
			return
		}

		var input struct {
			Status            string `json:"status"`
			RazorpayPaymentID string `json:"razorpayPaymentId"`
			RazorpayOrderID   string `json:"razorpayOrderId"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update := bson.M{}
		if input.Status != "" {
			if input.Status != models.ReceiptCompleted && input.Status != models.ReceiptPending {
				c.JSON(http.StatusBadRequest, gin.H{"error": "status must be Completed or Pending"})
				return
			}
			update["status"] = input.Status
		}
		if input.RazorpayPaymentID != "" {
			update["razorpay_payment_id"] = input.RazorpayPaymentID
		}
		if input.RazorpayOrderID != "" {
			update["razorpay_order_id"] = input.RazorpayOrderID
		}
		if len(update) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		ctx := c.Request.Context()
		updated, err := env.Receipts.UpdateReceipt(ctx, id, update)
		if err != nil {
			storeError(env, c, err, "receipt")
			return
		}

		if updated.Status == models.ReceiptCompleted && updated.CampaignID != nil {
			env.creditCampaign(ctx, updated)
		}
		env.publish(ctx, events.ReceiptUpdated, updated)

		c.JSON(http.StatusOK, gin.H{
			"message": "receipt updated successfully",
			"receipt": updated,
		})
	}
}

// creditCampaign adds a completed receipt to its campaign total the first time only.
func (e *Env) creditCampaign(ctx context.Context, r *models.Receipt) {
	credited, err := e.Receipts.MarkCampaignCredited(ctx, r.ID)
	if err != nil {
		e.Logger.Error("failed to mark receipt credited", "receipt_id", r.ID.Hex(), "error", err)
		return
	}
	if credited {
		e.addCampaignCollection(ctx, *r.CampaignID, r.Amount)
	}
}

func (e *Env) addCampaignCollection(ctx context.Context, id primitive.ObjectID, amount float64) {
	if err := e.Campaigns.AddCampaignCollection(ctx, id, amount); err != nil {
		e.Logger.Error("failed to update campaign collection", "campaign_id", id.Hex(), "error", err)
	}
}
