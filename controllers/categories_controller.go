package controllers

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/donation-portal-go/models"
)

// slugify lowercases name and joins its letter/digit runs with single dashes.
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func ListCategories(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := env.Catalog.Categories(c.Request.Context())
		if err != nil {
			storeError(env, c, err, "categories")
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func CreateCategory(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		slug := slugify(input.Name)
		if slug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must contain letters or digits"})
			return
		}

		category := models.Category{Name: strings.TrimSpace(input.Name), Slug: slug}
		if err := env.Categories.CreateCategory(c.Request.Context(), &category); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "category already exists"})
				return
			}
			storeError(env, c, err, "category")
			return
		}
		env.Catalog.Invalidate()

		c.JSON(http.StatusCreated, category)
	}
}

func DeleteCategory(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "category")
		if !ok {
			return
		}
		if err := env.Categories.DeleteCategory(c.Request.Context(), id); err != nil {
			storeError(env, c, err, "category")
			return
		}
		env.Catalog.Invalidate()

		c.JSON(http.StatusOK, gin.H{"message": "category deleted successfully", "id": id.Hex()})
	}
}
