package memory

import (
	"context"
	"testing"
	"time"

	"decodex/internal/domain"
)

func TestCatalogCacheCaches(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewQuestionStore(sampleQuestions(), nil)}
	cache := NewCatalogCache(loader, time.Minute)

	if _, err := cache.Catalog(context.Background()); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	cat, err := cache.Catalog(context.Background())
	if err != nil {
		t.Fatalf("catalog 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if cat.CountActive() != 2 {
		t.Fatalf("expected 2 active questions, got %d", cat.CountActive())
	}
}

func TestCatalogCacheInvalidate(t *testing.T) {
	store := NewQuestionStore(sampleQuestions(), nil)
	loader := &countingLoader{CatalogLoader: store}
	cache := NewCatalogCache(loader, time.Minute)
	ctx := context.Background()

	if _, err := cache.Catalog(ctx); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if err := store.SetActive(ctx, "q2", false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	cat, err := cache.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog after invalidate: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload, loader calls %d", loader.calls)
	}
	if cat.CountActive() != 1 {
		t.Fatalf("expected 1 active question after toggle, got %d", cat.CountActive())
	}
}

func TestCatalogCacheExpires(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewQuestionStore(sampleQuestions(), nil)}
	cache := NewCatalogCache(loader, time.Second)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	if _, err := cache.Catalog(context.Background()); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	now = now.Add(2 * time.Second)
	if _, err := cache.Catalog(context.Background()); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected expiry to reload, loader calls %d", loader.calls)
	}
}

type countingLoader struct {
	CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", OrderIndex: 1, Prompt: "What is 2 + 2?", Answer: "4", Points: 10, IsActive: true},
		{ID: "q2", OrderIndex: 2, Prompt: "Capital of France?", Answer: "Paris", Points: 20, IsActive: true},
	}
}
