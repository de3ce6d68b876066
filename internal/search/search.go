// Package search finds schools whose policy-theme profiles resemble each
// other. A profile is the vector of the eight theme scores scaled to [0, 1].
// Qdrant serves the index when configured, PgvectorIndex when Postgres is
// the store, and MemoryIndex backs tests.
package search

import (
	"cmp"
	"context"
	"errors"
	"math"
	"slices"

	"github.com/google/uuid"
)

// ProfileDims is the length of a theme-profile vector.
const ProfileDims = 8

// ErrDimensionMismatch is returned when a vector does not have ProfileDims entries.
var ErrDimensionMismatch = errors.New("search: vector dimension mismatch")

// Point is one school's theme profile.
type Point struct {
	SchoolID    uuid.UUID
	District    string
	Environment string
	Overall     int
	Vector      []float32
}

// Result is a neighbor school and its cosine similarity to the query.
type Result struct {
	SchoolID uuid.UUID
	Score    float32
}

// Index stores school profiles and answers nearest-neighbor queries.
// Implementations must be safe for concurrent use.
type Index interface {
	Upsert(ctx context.Context, points []Point) error
	Delete(ctx context.Context, ids []uuid.UUID) error
	// FindSimilar returns up to limit schools nearest to vector, most similar
	// first. excludeID is left out of the results.
	FindSimilar(ctx context.Context, vector []float32, excludeID uuid.UUID, limit int) ([]Result, error)
	Healthy(ctx context.Context) error
}

// Cosine returns the cosine similarity of a and b. A zero vector has
// similarity 0 with everything.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// sortResults orders results by similarity descending, then by school ID so
// equal scores come back in a stable order.
func sortResults(results []Result) {
	slices.SortFunc(results, func(a, b Result) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.SchoolID.String(), b.SchoolID.String()))
	})
}

func checkDims(v []float32) error {
	if len(v) != ProfileDims {
		return ErrDimensionMismatch
	}
	return nil
}
