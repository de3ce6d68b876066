package search

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryIndex is an exact, brute-force Index held in process memory.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[uuid.UUID]Point
}

// NewMemoryIndex returns an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[uuid.UUID]Point)}
}

func (m *MemoryIndex) Upsert(_ context.Context, points []Point) error {
	for _, p := range points {
		if err := checkDims(p.Vector); err != nil {
			return fmt.Errorf("search: upsert %s: %w", p.SchoolID, err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		p.Vector = slices.Clone(p.Vector)
		m.points[p.SchoolID] = p
	}
	return nil
}

func (m *MemoryIndex) Delete(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.points, id)
	}
	return nil
}

func (m *MemoryIndex) FindSimilar(_ context.Context, vector []float32, excludeID uuid.UUID, limit int) ([]Result, error) {
	if err := checkDims(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	m.mu.RLock()
	results := make([]Result, 0, len(m.points))
	for id, p := range m.points {
		if id == excludeID {
			continue
		}
		results = append(results, Result{SchoolID: id, Score: Cosine(vector, p.Vector)})
	}
	m.mu.RUnlock()

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Healthy always succeeds.
func (m *MemoryIndex) Healthy(context.Context) error { return nil }

// Len returns the number of indexed schools.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}
