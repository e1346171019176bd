package store

import (
	"fmt"
	"sort"
	"sync"

	"advisor/internal/port"
)

// MemoryVectorStore is an in-memory VectorStore with the same search
// semantics as BoltVectorStore. Used in tests and throwaway runs.
type MemoryVectorStore struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]vectorEntry
}

func NewMemoryVectorStore(dimension int) *MemoryVectorStore {
	return &MemoryVectorStore{
		dimension: dimension,
		vectors:   make(map[string]vectorEntry),
	}
}

func (s *MemoryVectorStore) Upsert(items []port.VectorItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(item.Vector))
		}
		s.vectors[item.ID] = vectorEntry{
			vector:  item.Vector,
			ordinal: item.Ordinal,
		}
	}
	return nil
}

func (s *MemoryVectorStore) Search(query []float32, k int) ([]port.VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}

	scores := make([]port.VectorResult, 0, len(s.vectors))
	for id, entry := range s.vectors {
		scores = append(scores, port.VectorResult{
			ID:      id,
			Ordinal: entry.ordinal,
			Score:   cosineSimilarity(query, entry.vector),
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Ordinal < scores[j].Ordinal
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

func (s *MemoryVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}
