package utils

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader stores media in one Cloudinary account.
type Uploader struct {
	cld *cloudinary.Cloudinary
}

func NewUploader(cloudName, apiKey, apiSecret string) (*Uploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	return &Uploader{cld: cld}, nil
}

// Upload stores file under folder and returns its https URL. Resource type is
// detected by Cloudinary so videos land in the video namespace.
func (u *Uploader) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload error: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Delete removes the asset behind a URL previously returned by Upload.
func (u *Uploader) Delete(ctx context.Context, mediaURL string) error {
	publicID, resourceType, err := extractPublicID(mediaURL)
	if err != nil {
		return fmt.Errorf("could not extract public ID: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = u.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}

// extractPublicID pulls folder/name and the resource type out of a delivery URL like
// https://res.cloudinary.com/demo/image/upload/v1234567890/statuses/abc123.jpg
func extractPublicID(mediaURL string) (string, string, error) {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return "", "", err
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	idx := -1
	for i, p := range parts {
		if p == "upload" {
			idx = i
			break
		}
	}
	if idx < 1 || idx == len(parts)-1 {
		return "", "", fmt.Errorf("invalid cloudinary URL format")
	}
	resourceType := parts[idx-1]

	rest := parts[idx+1:]
	if len(rest) > 1 && isVersion(rest[0]) {
		rest = rest[1:]
	}
	joined := path.Join(rest...)
	return strings.TrimSuffix(joined, path.Ext(joined)), resourceType, nil
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
