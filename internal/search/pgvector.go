package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgvectorIndex keeps theme profiles in the school_profiles table of the
// application database and ranks them with pgvector's cosine distance.
// It serves Similar when Postgres is the store and Qdrant is not configured.
type PgvectorIndex struct {
	pool *pgxpool.Pool
}

// NewPgvectorIndex returns an index over pool. The school_profiles table
// comes from the embedded migrations.
func NewPgvectorIndex(pool *pgxpool.Pool) *PgvectorIndex {
	return &PgvectorIndex{pool: pool}
}

func (p *PgvectorIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pt := range points {
		if err := checkDims(pt.Vector); err != nil {
			return fmt.Errorf("search: upsert %s: %w", pt.SchoolID, err)
		}
		batch.Queue(`INSERT INTO school_profiles (school_id, district, environment, overall_score, profile, updated_at)
			VALUES ($1, $2, $3, $4, $5::vector, now())
			ON CONFLICT (school_id) DO UPDATE SET
				district = EXCLUDED.district,
				environment = EXCLUDED.environment,
				overall_score = EXCLUDED.overall_score,
				profile = EXCLUDED.profile,
				updated_at = EXCLUDED.updated_at`,
			pt.SchoolID, pt.District, pt.Environment, pt.Overall, pgvector.NewVector(pt.Vector))
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("search: pgvector upsert: %w", err)
	}
	return nil
}

func (p *PgvectorIndex) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := p.pool.Exec(ctx, `DELETE FROM school_profiles WHERE school_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("search: pgvector delete: %w", err)
	}
	return nil
}

// FindSimilar ranks by cosine distance. pgvector returns NaN for a zero
// vector; those rows rank as distance 1 (similarity 0), matching Cosine.
func (p *PgvectorIndex) FindSimilar(ctx context.Context, vector []float32, excludeID uuid.UUID, limit int) ([]Result, error) {
	if err := checkDims(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := p.pool.Query(ctx,
		`SELECT school_id, COALESCE(NULLIF(profile <=> $1::vector, 'NaN'::float8), 1) AS distance
		 FROM school_profiles
		 WHERE school_id <> $2
		 ORDER BY distance, school_id
		 LIMIT $3`,
		pgvector.NewVector(vector), excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("search: pgvector query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			id       uuid.UUID
			distance float64
		)
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, fmt.Errorf("search: pgvector scan: %w", err)
		}
		results = append(results, Result{SchoolID: id, Score: float32(1 - distance)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search: pgvector rows: %w", err)
	}
	return results, nil
}

func (p *PgvectorIndex) Healthy(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Len returns the number of indexed schools.
func (p *PgvectorIndex) Len(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM school_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("search: pgvector count: %w", err)
	}
	return n, nil
}
