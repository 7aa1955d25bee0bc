package services

import (
	"context"
	"sync"

	models "github.com/phillip/donation-portal-go/models"
)

// CatalogSource loads the full category and status lists.
type CatalogSource interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListStatuses(ctx context.Context) ([]models.Status, error)
}

// CatalogCache keeps categories and statuses in memory after the first successful read.
// Every write to either collection must call Invalidate.
type CatalogCache struct {
	source CatalogSource

	mu         sync.Mutex
	loaded     bool
	categories []models.Category
	statuses   []models.Status
}

func NewCatalogCache(source CatalogSource) *CatalogCache {
	return &CatalogCache{source: source}
}

func (c *CatalogCache) ensure(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	categories, err := c.source.ListCategories(ctx)
	if err != nil {
		return err
	}
	statuses, err := c.source.ListStatuses(ctx)
	if err != nil {
		return err
	}
	c.categories = categories
	c.statuses = statuses
	c.loaded = true
	return nil
}

// Categories returns a copy of the cached categories, loading them on first use.
func (c *CatalogCache) Categories(ctx context.Context) ([]models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Category, len(c.categories))
	copy(out, c.categories)
	return out, nil
}

// Statuses returns a copy of the cached statuses, loading them on first use.
func (c *CatalogCache) Statuses(ctx context.Context) ([]models.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Status, len(c.statuses))
	copy(out, c.statuses)
	return out, nil
}

// Invalidate drops the cached lists; the next read reloads them.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.categories = nil
	c.statuses = nil
	c.mu.Unlock()
}
