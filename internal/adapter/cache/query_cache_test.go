package cache

import (
	"context"
	"testing"
	"time"

	"advisor/internal/domain"
)

type countingRetriever struct {
	calls int
}

func (r *countingRetriever) Search(_ context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	r.calls++
	return []domain.ScoredDocument{
		{Document: domain.Document{ID: query}, Score: 1},
	}, nil
}

func TestCachedRetriever_HitSkipsInner(t *testing.T) {
	inner := &countingRetriever{}
	r := NewCachedRetriever(inner, NewQueryCache(10, time.Minute))

	for i := 0; i < 3; i++ {
		results, err := r.Search(context.Background(), "vitamin c", 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].Document.ID != "vitamin c" {
			t.Fatalf("unexpected results: %+v", results)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestQueryCache_DistinctKeys(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("q", 5, []domain.ScoredDocument{{Score: 1}})

	if _, ok := c.Get("q", 3); ok {
		t.Error("different k must miss")
	}
	if _, ok := c.Get("other", 5); ok {
		t.Error("different query must miss")
	}
	if _, ok := c.Get("q", 5); !ok {
		t.Error("same key must hit")
	}
}

func TestQueryCache_Eviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("a", 1, nil)
	c.Put("b", 1, nil)
	c.Put("c", 1, nil)

	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
	if _, ok := c.Get("a", 1); ok {
		t.Error("oldest entry should have been evicted")
	}
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Nanosecond)
	c.Put("q", 5, []domain.ScoredDocument{{Score: 1}})
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("q", 5); ok {
		t.Error("expired entry should miss")
	}
}
