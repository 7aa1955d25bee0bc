package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	models "github.com/phillip/donation-portal-go/models"
	services "github.com/phillip/donation-portal-go/services"
)

const statusMediaFolder = "statuses"

// statusQuery narrows the cached status list. Unset fields do not filter.
type statusQuery struct {
	Category string `form:"category"`
	Type     string `form:"type"`
	Featured string `form:"featured"`
	Active   string `form:"active"`
}

func filterStatuses(list []models.Status, q statusQuery) []models.Status {
	featured, hasFeatured := parseBool(q.Featured)
	active, hasActive := parseBool(q.Active)

	out := make([]models.Status, 0, len(list))
	for _, st := range list {
		if q.Category != "" && !strings.EqualFold(st.Category, q.Category) {
			continue
		}
		if q.Type != "" && st.Type != strings.ToLower(q.Type) {
			continue
		}
		if hasFeatured && st.Featured != featured {
			continue
		}
		if hasActive && st.IsActive != active {
			continue
		}
		out = append(out, st)
	}
	return out
}

func parseBool(s string) (bool, bool) {
	if s == "" {
		return false, false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return v, true
}

func validStatusType(t string) bool {
	return t == models.StatusText || t == models.StatusImage || t == models.StatusVideo
}

func splitTags(raw []string) []string {
	tags := []string{}
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// ---------------- LIST ----------------
func ListStatuses(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q statusQuery
		_ = c.ShouldBindQuery(&q)

		statuses, err := env.Catalog.Statuses(c.Request.Context())
		if err != nil {
			storeError(env, c, err, "statuses")
			return
		}
		c.JSON(http.StatusOK, filterStatuses(statuses, q))
	}
}

// ---------------- GET ----------------
func GetStatus(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "status")
		if !ok {
			return
		}
		st, err := env.Statuses.GetStatus(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "status")
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

type statusForm struct {
	Content         string   `form:"content"`
	Type            string   `form:"type"`
	Category        string   `form:"category"`
	Tags            []string `form:"tags"`
	BackgroundColor string   `form:"backgroundColor"`
	TextColor       string   `form:"textColor"`
	FontFamily      string   `form:"fontFamily"`
	Featured        *bool    `form:"featured"`
	IsActive        *bool    `form:"isActive"`
}

// ---------------- CREATE ----------------
func CreateStatus(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input statusForm
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		input.Type = strings.ToLower(strings.TrimSpace(input.Type))
		if input.Type == "" {
			input.Type = models.StatusText
		}
		if !validStatusType(input.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be text, image or video"})
			return
		}
		if strings.TrimSpace(input.Category) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
			return
		}

		if input.Type == models.StatusText && strings.TrimSpace(input.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required for text statuses"})
			return
		}

		urls, ok := uploadFiles(env, c, "media", statusMediaFolder)
		if !ok {
			return
		}
		mediaURL := ""
		if len(urls) > 0 {
			mediaURL = urls[0]
			deleteMedia(env, c, urls[1:]...)
		}

		if input.Type != models.StatusText && mediaURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "media file is required for " + input.Type + " statuses"})
			return
		}

		st := models.Status{
			Content:  strings.TrimSpace(input.Content),
			Type:     input.Type,
			Category: strings.TrimSpace(input.Category),
			Tags:     splitTags(input.Tags),
			Style: models.StatusStyle{
				BackgroundColor: input.BackgroundColor,
				TextColor:       input.TextColor,
				FontFamily:      input.FontFamily,
			},
			MediaURL: mediaURL,
			IsActive: true,
		}
		if input.Featured != nil {
			st.Featured = *input.Featured
		}
		if input.IsActive != nil {
			st.IsActive = *input.IsActive
		}

		if err := env.Statuses.CreateStatus(c.Request.Context(), &st); err != nil {
			deleteMedia(env, c, mediaURL)
			storeError(env, c, err, "status")
			return
		}
		env.Catalog.Invalidate()

		c.JSON(http.StatusCreated, st)
	}
}

// ---------------- UPDATE ----------------
func UpdateStatus(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "status")
		if !ok {
			return
		}

		var input statusForm
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		existing, err := env.Statuses.GetStatus(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "status")
			return
		}

		update := bson.M{}
		if input.Content != "" {
			update["content"] = strings.TrimSpace(input.Content)
		}
		if input.Type != "" {
			t := strings.ToLower(strings.TrimSpace(input.Type))
			if !validStatusType(t) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "type must be text, image or video"})
				return
			}
			update["type"] = t
		}
		if input.Category != "" {
			update["category"] = strings.TrimSpace(input.Category)
		}
		if input.Tags != nil {
			update["tags"] = splitTags(input.Tags)
		}
		if input.BackgroundColor != "" {
			update["style.background_color"] = input.BackgroundColor
		}
		if input.TextColor != "" {
			update["style.text_color"] = input.TextColor
		}
		if input.FontFamily != "" {
			update["style.font_family"] = input.FontFamily
		}
		if input.Featured != nil {
			update["featured"] = *input.Featured
		}
		if input.IsActive != nil {
			update["is_active"] = *input.IsActive
		}

		finalType := existing.Type
		if t, ok := update["type"].(string); ok {
			finalType = t
		}
		finalContent := existing.Content
		if v, ok := update["content"].(string); ok {
			finalContent = v
		}
		if finalType == models.StatusText && finalContent == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required for text statuses"})
			return
		}

		urls, ok := uploadFiles(env, c, "media", statusMediaFolder)
		if !ok {
			return
		}
		if len(urls) > 0 {
			update["media_url"] = urls[0]
			deleteMedia(env, c, urls[1:]...)
		}
		if finalType != models.StatusText && existing.MediaURL == "" && len(urls) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "media file is required for " + finalType + " statuses"})
			return
		}

		if len(update) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		updated, err := env.Statuses.UpdateStatus(c.Request.Context(), id, update)
		if err != nil {
			if len(urls) > 0 {
				deleteMedia(env, c, urls[0])
			}
			storeError(env, c, err, "status")
			return
		}
		if len(urls) > 0 && existing.MediaURL != "" {
			deleteMedia(env, c, existing.MediaURL)
		}
		env.Catalog.Invalidate()

		c.JSON(http.StatusOK, updated)
	}
}

// ---------------- DELETE ----------------
func DeleteStatus(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "status")
		if !ok {
			return
		}

		existing, err := env.Statuses.GetStatus(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "status")
			return
		}
		if err := env.Statuses.DeleteStatus(c.Request.Context(), id); err != nil {
			storeError(env, c, err, "status")
			return
		}
		deleteMedia(env, c, existing.MediaURL)
		env.Catalog.Invalidate()

		c.JSON(http.StatusOK, gin.H{"message": "status deleted successfully", "id": id.Hex()})
	}
}

// RecordStatusUse counts a share or download of a status.
func RecordStatusUse(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "status")
		if !ok {
			return
		}
		count, err := env.Statuses.RecordStatusUse(c.Request.Context(), id, env.now())
		if err != nil {
			storeError(env, c, err, "status")
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.Hex(), "usageCount": count})
	}
}

func StatusStats(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "status")
		if !ok {
			return
		}
		st, err := env.Statuses.GetStatus(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "status")
			return
		}

		now := env.now()
		since := now.UTC().Truncate(24*time.Hour).AddDate(0, 0, -6)
		uses, err := env.Statuses.StatusUsesSince(c.Request.Context(), id, since)
		if err != nil {
			storeError(env, c, err, "status usage")
			return
		}

		c.JSON(http.StatusOK, models.StatusStats{
			StatusID:    id.Hex(),
			UsageCount:  st.UsageCount,
			WeeklyTrend: services.WeeklyTrend(uses, now),
		})
	}
}
