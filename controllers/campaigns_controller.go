package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	models "github.com/phillip/donation-portal-go/models"
	utils "github.com/phillip/donation-portal-go/utils"
)

const campaignImageFolder = "campaigns"

var campaignStatuses = map[string]bool{"ACTIVE": true, "CLOSED": true, "ARCHIVED": true}

// ---------------- CREATE ----------------
func CreateCampaign(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title        string  `form:"title" binding:"required"`
			Description  string  `form:"description"`
			Location     string  `form:"location"`
			TargetAmount float64 `form:"target_amount" binding:"gte=0"`
			Deadline     *string `form:"deadline"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var deadline *time.Time
		if input.Deadline != nil && *input.Deadline != "" {
			parsed, err := utils.ParseDate(*input.Deadline)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			deadline = &parsed
		}

		imageURLs, ok := uploadFiles(env, c, "images", campaignImageFolder)
		if !ok {
			return
		}

		campaign := models.Campaign{
			Title:        strings.TrimSpace(input.Title),
			Description:  input.Description,
			Location:     input.Location,
			TargetAmount: input.TargetAmount,
			Deadline:     deadline,
			Status:       "ACTIVE",
			Images:       imageURLs,
		}
		if err := env.Campaigns.CreateCampaign(c.Request.Context(), &campaign); err != nil {
			deleteMedia(env, c, imageURLs...)
			storeError(env, c, err, "campaign")
			return
		}

		c.JSON(http.StatusCreated, campaign)
	}
}

// ---------------- LIST ----------------
func ListCampaigns(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaigns, err := env.Campaigns.ListCampaigns(c.Request.Context(), c.Query("q"))
		if err != nil {
			storeError(env, c, err, "campaigns")
			return
		}
		if len(campaigns) == 0 {
			c.JSON(http.StatusOK, []models.Campaign{})
			return
		}

		// --- ETag over every campaign in the result ---
		etag := utils.NewListETag()
		latest := campaigns[0]
		for _, cp := range campaigns {
			etag.Add(cp.ID, cp.UpdatedAt)
			if cp.UpdatedAt.After(latest.UpdatedAt) {
				latest = cp
			}
		}
		if notModified(c, etag.String()) {
			return
		}
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, campaigns)
	}
}

// ---------------- GET ----------------
func GetCampaign(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "campaign")
		if !ok {
			return
		}
		campaign, err := env.Campaigns.GetCampaign(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "campaign")
			return
		}
		if notModified(c, utils.GenerateETag(campaign.ID, campaign.UpdatedAt)) {
			return
		}
		c.JSON(http.StatusOK, campaign)
	}
}

// ---------------- UPDATE ----------------
func UpdateCampaign(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "campaign")
		if !ok {
			return
		}

		var input struct {
			Title        string   `form:"title"`
			Description  string   `form:"description"`
			Location     string   `form:"location"`
			TargetAmount float64  `form:"target_amount"`
			Deadline     *string  `form:"deadline"`
			Status       string   `form:"status"`
			Images       []string `form:"images"` // existing image URLs to keep
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		existing, err := env.Campaigns.GetCampaign(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "campaign")
			return
		}

		update := bson.M{}
		if input.Title != "" {
			update["title"] = strings.TrimSpace(input.Title)
		}
		if input.Description != "" {
			update["description"] = input.Description
		}
		if input.Location != "" {
			update["location"] = input.Location
		}
		if input.TargetAmount > 0 {
			update["target_amount"] = input.TargetAmount
		}
		if input.Status != "" {
			status := strings.ToUpper(input.Status)
			if !campaignStatuses[status] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "status must be ACTIVE, CLOSED or ARCHIVED"})
				return
			}
			update["status"] = status
		}
		if input.Deadline != nil && *input.Deadline != "" {
			parsed, err := utils.ParseDate(*input.Deadline)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			update["deadline"] = parsed
		}

		newImageURLs, ok := uploadFiles(env, c, "new_images", campaignImageFolder)
		if !ok {
			return
		}
		var dropped []string
		if input.Images != nil || len(newImageURLs) > 0 {
			kept := keepImages(existing.Images, input.Images)
			update["images"] = append(kept, newImageURLs...)
			dropped = droppedImages(existing.Images, kept)
		}

		if len(update) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		updated, err := env.Campaigns.UpdateCampaign(c.Request.Context(), id, update)
		if err != nil {
			deleteMedia(env, c, newImageURLs...)
			storeError(env, c, err, "campaign")
			return
		}
		deleteMedia(env, c, dropped...)

		c.JSON(http.StatusOK, gin.H{
			"message":  "campaign updated successfully",
			"campaign": updated,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteCampaign(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "campaign")
		if !ok {
			return
		}

		existing, err := env.Campaigns.GetCampaign(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "campaign")
			return
		}
		if err := env.Campaigns.DeleteCampaign(c.Request.Context(), id); err != nil {
			storeError(env, c, err, "campaign")
			return
		}
		deleteMedia(env, c, existing.Images...)

		c.JSON(http.StatusOK, gin.H{
			"message": "campaign deleted successfully",
			"id":      id.Hex(),
		})
	}
}

// keepImages returns the requested images that the document actually has, so a form
// cannot attach arbitrary URLs.
func keepImages(current, requested []string) []string {
	have := make(map[string]bool, len(current))
	for _, u := range current {
		have[u] = true
	}
	kept := []string{}
	for _, u := range requested {
		if have[u] {
			kept = append(kept, u)
		}
	}
	return kept
}

func droppedImages(current, kept []string) []string {
	keep := make(map[string]bool, len(kept))
	for _, u := range kept {
		keep[u] = true
	}
	var dropped []string
	for _, u := range current {
		if !keep[u] {
			dropped = append(dropped, u)
		}
	}
	return dropped
}
