package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	models "github.com/phillip/donation-portal-go/models"
)

type catalogSourceStub struct {
	calls      int32
	categories []models.Category
	statuses   []models.Status
	err        error
}

func (s *catalogSourceStub) ListCategories(ctx context.Context) ([]models.Category, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.categories, nil
}

func (s *catalogSourceStub) ListStatuses(ctx context.Context) ([]models.Status, error) {
	return s.statuses, nil
}

func TestCatalogCacheLoadsOnce(t *testing.T) {
	src := &catalogSourceStub{
		categories: []models.Category{{Name: "Festivals"}},
		statuses:   []models.Status{{Content: "Eid Mubarak"}},
	}
	cache := NewCatalogCache(src)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Statuses(context.Background()); err != nil {
				t.Errorf("Statuses returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	cats, err := cache.Categories(context.Background())
	if err != nil || len(cats) != 1 {
		t.Fatalf("unexpected categories %v, %v", cats, err)
	}
	if n := atomic.LoadInt32(&src.calls); n != 1 {
		t.Fatalf("expected a single load, got %d", n)
	}
}

func TestCatalogCacheInvalidate(t *testing.T) {
	src := &catalogSourceStub{statuses: []models.Status{{Content: "a"}}}
	cache := NewCatalogCache(src)

	if _, err := cache.Statuses(context.Background()); err != nil {
		t.Fatal(err)
	}
	src.statuses = []models.Status{{Content: "a"}, {Content: "b"}}

	got, _ := cache.Statuses(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected stale cached value before invalidation, got %d", len(got))
	}

	cache.Invalidate()
	got, _ = cache.Statuses(context.Background())
	if len(got) != 2 {
		t.Fatalf("expected reload after invalidation, got %d", len(got))
	}
	if n := atomic.LoadInt32(&src.calls); n != 2 {
		t.Fatalf("expected 2 loads, got %d", n)
	}
}

func TestCatalogCacheDoesNotCacheFailures(t *testing.T) {
	src := &catalogSourceStub{err: errors.New("mongo down")}
	cache := NewCatalogCache(src)

	if _, err := cache.Categories(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	src.err = nil
	if _, err := cache.Categories(context.Background()); err != nil {
		t.Fatalf("expected recovery after failure, got %v", err)
	}
}
