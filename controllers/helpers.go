package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	store "github.com/phillip/donation-portal-go/store"
	utils "github.com/phillip/donation-portal-go/utils"
)

func parseID(c *gin.Context, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// storeError answers 404 for a missing document and 500 for anything else.
func storeError(env *Env, c *gin.Context, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	env.Logger.Error("store operation failed", "resource", what, "error", err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process " + what})
}

// notModified sets ETag and reports whether the client copy is current.
func notModified(c *gin.Context, etag string) bool {
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	c.Header("ETag", etag)
	return false
}

// uploadFiles stores every file under key and returns their URLs in order.
func uploadFiles(env *Env, c *gin.Context, key, folder string) ([]string, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return nil, false
	}

	var urls []string
	for _, fh := range form.File[key] {
		url, err := uploadOne(env, c, fh, folder)
		if err != nil {
			deleteMedia(env, c, urls...)
			env.Logger.Error("media upload failed", "file", fh.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "image upload failed",
				"file":  fh.Filename,
			})
			return nil, false
		}
		urls = append(urls, url)
	}
	return urls, true
}

var errMediaDisabled = errors.New("media storage is not configured")

func uploadOne(env *Env, c *gin.Context, fh *multipart.FileHeader, folder string) (string, error) {
	if env.Media == nil {
		return "", errMediaDisabled
	}
	file, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	return env.Media.Upload(c.Request.Context(), file, folder)
}

// deleteMedia removes stored files. Failures are only logged.
func deleteMedia(env *Env, c *gin.Context, urls ...string) {
	if env.Media == nil {
		return
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := env.Media.Delete(c.Request.Context(), u); err != nil {
			env.Logger.Warn("failed to delete media", "url", u, "error", err)
		}
	}
}

// parsePhone normalises a phone number or answers 400.
func parsePhone(c *gin.Context, raw string) (string, bool) {
	phone, err := utils.NormalizePhone(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return phone, true
}
