package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	models "github.com/phillip/donation-portal-go/models"
	utils "github.com/phillip/donation-portal-go/utils"
)

const instituteImageFolder = "institutes"

// ---------------- CREATE ----------------
func CreateInstitute(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title        string  `form:"title" binding:"required"`
			Description  string  `form:"description"`
			Lat          float64 `form:"lat" binding:"gte=-90,lte=90"`
			Lng          float64 `form:"lng" binding:"gte=-180,lte=180"`
			LocationName string  `form:"location_name"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		imageURLs, ok := uploadFiles(env, c, "images", instituteImageFolder)
		if !ok {
			return
		}

		inst := models.Institute{
			Title:        strings.TrimSpace(input.Title),
			Description:  input.Description,
			Coordinates:  models.Coordinates{Lat: input.Lat, Lng: input.Lng},
			LocationName: input.LocationName,
			Images:       imageURLs,
		}
		if err := env.Institutes.CreateInstitute(c.Request.Context(), &inst); err != nil {
			deleteMedia(env, c, imageURLs...)
			storeError(env, c, err, "institute")
			return
		}

		c.JSON(http.StatusCreated, inst)
	}
}

// ---------------- LIST ----------------
func ListInstitutes(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		institutes, err := env.Institutes.ListInstitutes(c.Request.Context(), c.Query("q"))
		if err != nil {
			storeError(env, c, err, "institutes")
			return
		}
		if len(institutes) == 0 {
			c.JSON(http.StatusOK, []models.Institute{})
			return
		}

		etag := utils.NewListETag()
		latest := institutes[0]
		for _, in := range institutes {
			etag.Add(in.ID, in.UpdatedAt)
			if in.UpdatedAt.After(latest.UpdatedAt) {
				latest = in
			}
		}
		if notModified(c, etag.String()) {
			return
		}
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, institutes)
	}
}

// ---------------- GET ----------------
func GetInstitute(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "institute")
		if !ok {
			return
		}
		inst, err := env.Institutes.GetInstitute(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "institute")
			return
		}
		if notModified(c, utils.GenerateETag(inst.ID, inst.UpdatedAt)) {
			return
		}
		c.JSON(http.StatusOK, inst)
	}
}

// ---------------- UPDATE ----------------
func UpdateInstitute(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "institute")
		if !ok {
			return
		}

		var input struct {
			Title        string   `form:"title"`
			Description  string   `form:"description"`
			Lat          *float64 `form:"lat"`
			Lng          *float64 `form:"lng"`
			LocationName string   `form:"location_name"`
			Images       []string `form:"images"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		existing, err := env.Institutes.GetInstitute(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "institute")
			return
		}

		update := bson.M{}
		if input.Title != "" {
			update["title"] = strings.TrimSpace(input.Title)
		}
		if input.Description != "" {
			update["description"] = input.Description
		}
		if input.LocationName != "" {
			update["location_name"] = input.LocationName
		}
		if input.Lat != nil {
			if *input.Lat < -90 || *input.Lat > 90 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "lat must be between -90 and 90"})
				return
			}
			update["coordinates.lat"] = *input.Lat
		}
		if input.Lng != nil {
			if *input.Lng < -180 || *input.Lng > 180 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "lng must be between -180 and 180"})
				return
			}
			update["coordinates.lng"] = *input.Lng
		}

		newImageURLs, ok := uploadFiles(env, c, "new_images", instituteImageFolder)
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

		updated, err := env.Institutes.UpdateInstitute(c.Request.Context(), id, update)
		if err != nil {
			deleteMedia(env, c, newImageURLs...)
			storeError(env, c, err, "institute")
			return
		}
		deleteMedia(env, c, dropped...)

		c.JSON(http.StatusOK, gin.H{
			"message":   "institute updated successfully",
			"institute": updated,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteInstitute(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "institute")
		if !ok {
			return
		}

		existing, err := env.Institutes.GetInstitute(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "institute")
			return
		}
		if err := env.Institutes.DeleteInstitute(c.Request.Context(), id); err != nil {
			storeError(env, c, err, "institute")
			return
		}
		deleteMedia(env, c, existing.Images...)

		c.JSON(http.StatusOK, gin.H{
			"message": "institute deleted successfully",
			"id":      id.Hex(),
		})
	}
}
