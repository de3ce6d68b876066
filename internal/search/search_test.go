package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/manabi/internal/testutil"
)

func vec(v ...float32) []float32 {
	out := make([]float32, ProfileDims)
	copy(out, v)
	return out
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine(vec(1, 2, 3), vec(2, 4, 6)), 1e-6)
	assert.InDelta(t, 0.0, Cosine(vec(1), vec(0, 1)), 1e-6)
	assert.Equal(t, float32(0), Cosine(vec(), vec(1)), "zero vector")
	assert.Equal(t, float32(0), Cosine([]float32{1}, []float32{1, 2}), "length mismatch")
}

func TestMemoryIndex_FindSimilar(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	self, near, far := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, idx.Upsert(ctx, []Point{
		{SchoolID: self, Vector: vec(0.9, 0.8, 0.7)},
		{SchoolID: near, Vector: vec(0.85, 0.8, 0.75)},
		{SchoolID: far, Vector: vec(0, 0, 0, 0.9, 0.9)},
	}))
	assert.Equal(t, 3, idx.Len())

	results, err := idx.FindSimilar(ctx, vec(0.9, 0.8, 0.7), self, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, near, results[0].SchoolID)
	assert.Equal(t, far, results[1].SchoolID)
	assert.Greater(t, results[0].Score, results[1].Score)

	limited, err := idx.FindSimilar(ctx, vec(0.9, 0.8, 0.7), self, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, idx.Delete(ctx, []uuid.UUID{near}))
	results, err = idx.FindSimilar(ctx, vec(0.9, 0.8, 0.7), self, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, far, results[0].SchoolID)
}

func TestMemoryIndex_RejectsWrongDimensions(t *testing.T) {
	idx := NewMemoryIndex()
	err := idx.Upsert(context.Background(), []Point{{SchoolID: uuid.New(), Vector: []float32{1, 2}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = idx.FindSimilar(context.Background(), []float32{1}, uuid.Nil, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// flakyIndex fails the first failures calls to Upsert.
type flakyIndex struct {
	*MemoryIndex
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyIndex) Upsert(ctx context.Context, points []Point) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("index unavailable")
	}
	return f.MemoryIndex.Upsert(ctx, points)
}

func TestSyncer_CoalescesPerSchool(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	s := NewSyncer(idx, testutil.TestLogger(), time.Hour)

	id := uuid.New()
	s.Upsert(Point{SchoolID: id, Vector: vec(0.1)})
	s.Upsert(Point{SchoolID: id, Vector: vec(0.9)})
	assert.Equal(t, 1, s.Pending())

	s.Flush(ctx)
	assert.Equal(t, 0, s.Pending())
	results, err := idx.FindSimilar(ctx, vec(1), uuid.Nil, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].SchoolID)

	s.Delete(id)
	s.Flush(ctx)
	assert.Equal(t, 0, idx.Len())
}

func TestSyncer_RetriesFailedWrites(t *testing.T) {
	ctx := context.Background()
	idx := &flakyIndex{MemoryIndex: NewMemoryIndex(), failures: 2}
	s := NewSyncer(idx, testutil.TestLogger(), time.Hour)

	s.Upsert(Point{SchoolID: uuid.New(), Vector: vec(1)})
	s.Flush(ctx)
	assert.Equal(t, 1, s.Pending(), "failed write stays pending")
	s.Flush(ctx)
	assert.Equal(t, 1, s.Pending())
	s.Flush(ctx)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 1, idx.Len())
}

func TestSyncer_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	idx := &flakyIndex{MemoryIndex: NewMemoryIndex(), failures: 100}
	s := NewSyncer(idx, testutil.TestLogger(), time.Hour)

	s.Upsert(Point{SchoolID: uuid.New(), Vector: vec(1)})
	for range maxSyncAttempts {
		s.Flush(ctx)
	}
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, int64(1), s.dropped.Load())
}

func TestSyncer_DrainFlushesPending(t *testing.T) {
	idx := NewMemoryIndex()
	s := NewSyncer(idx, testutil.TestLogger(), time.Hour)
	s.Start(context.Background())

	s.Upsert(Point{SchoolID: uuid.New(), Vector: vec(1)})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Drain(ctx)
	assert.Equal(t, 1, idx.Len())
}

func TestSyncer_DrainWithoutStart(t *testing.T) {
	idx := NewMemoryIndex()
	s := NewSyncer(idx, testutil.TestLogger(), time.Hour)
	s.Upsert(Point{SchoolID: uuid.New(), Vector: vec(1)})
	s.Drain(context.Background())
	assert.Equal(t, 1, idx.Len())
}
