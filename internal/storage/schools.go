package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/manabi/internal/model"
)

const schoolColumns = `id, name, code, district, sector, province, environment,
	latitude, longitude, total_students, male_students, female_students,
	total_teachers, sections, created_at, updated_at`

// CreateSchool inserts a school profile. A nil ID is replaced with a new one.
func (db *DB) CreateSchool(ctx context.Context, s model.School) (model.School, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	sections, err := packSchoolSections(s)
	if err != nil {
		return model.School{}, err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO schools (`+schoolColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		s.ID, s.Name, s.Code, s.District, s.Sector, s.Province, string(s.Environment),
		s.Latitude, s.Longitude, s.TotalStudents, s.MaleStudents, s.FemaleStudents,
		s.TotalTeachers, sections, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.School{}, fmt.Errorf("storage: school code %q: %w", s.Code, ErrConflict)
		}
		return model.School{}, fmt.Errorf("storage: create school: %w", err)
	}
	return s, nil
}

// UpdateSchool replaces the profile of an existing school. CreatedAt is kept
// from the stored row.
func (db *DB) UpdateSchool(ctx context.Context, s model.School) (model.School, error) {
	s.UpdatedAt = time.Now().UTC()
	sections, err := packSchoolSections(s)
	if err != nil {
		return model.School{}, err
	}

	err = db.pool.QueryRow(ctx,
		`UPDATE schools SET name = $2, code = $3, district = $4, sector = $5,
		        province = $6, environment = $7, latitude = $8, longitude = $9,
		        total_students = $10, male_students = $11, female_students = $12,
		        total_teachers = $13, sections = $14, updated_at = $15
		 WHERE id = $1
		 RETURNING created_at`,
		s.ID, s.Name, s.Code, s.District, s.Sector, s.Province, string(s.Environment),
		s.Latitude, s.Longitude, s.TotalStudents, s.MaleStudents, s.FemaleStudents,
		s.TotalTeachers, sections, s.UpdatedAt,
	).Scan(&s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.School{}, fmt.Errorf("storage: school %s: %w", s.ID, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return model.School{}, fmt.Errorf("storage: school code %q: %w", s.Code, ErrConflict)
		}
		return model.School{}, fmt.Errorf("storage: update school: %w", err)
	}
	return s, nil
}

// GetSchool returns one school by ID.
func (db *DB) GetSchool(ctx context.Context, id uuid.UUID) (model.School, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id)
	s, err := scanSchool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.School{}, fmt.Errorf("storage: school %s: %w", id, ErrNotFound)
		}
		return model.School{}, fmt.Errorf("storage: get school: %w", err)
	}
	return s, nil
}

// GetSchools returns the schools with the given IDs in the order requested.
// Unknown IDs are an ErrNotFound.
func (db *DB) GetSchools(ctx context.Context, ids []uuid.UUID) ([]model.School, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("storage: get schools: %w", err)
	}
	found, err := collectSchools(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.School, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}
	out := make([]model.School, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("storage: school %s: %w", id, ErrNotFound)
		}
		out = append(out, s)
	}
	return out, nil
}

// ListSchools returns a page of schools ordered by name, plus the total
// number of schools matching filter.
func (db *DB) ListSchools(ctx context.Context, filter model.SchoolFilter, limit, offset int) ([]model.School, int, error) {
	limit, offset = clampPage(limit, offset)
	where, args := schoolWhere(filter)

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT count(*) FROM schools`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("storage: count schools: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM schools%s ORDER BY lower(name), id LIMIT $%d OFFSET $%d`,
			schoolColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: list schools: %w", err)
	}
	schools, err := collectSchools(rows)
	if err != nil {
		return nil, 0, err
	}
	return schools, total, nil
}

func schoolWhere(f model.SchoolFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.District != "" {
		args = append(args, f.District)
		conds = append(conds, fmt.Sprintf("lower(district) = lower($%d)", len(args)))
	}
	if f.Environment != "" {
		args = append(args, string(f.Environment))
		conds = append(conds, fmt.Sprintf("environment = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// DeleteSchool removes a school. Its reports go with it.
func (db *DB) DeleteSchool(ctx context.Context, id uuid.UUID) error {
	err := db.inSerializableTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schools WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("storage: school %s: %w", id, ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM ict_reports WHERE school_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM school_profiles WHERE school_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("storage: delete school: %w", err)
	}
	return nil
}

func scanSchool(row pgx.Row) (model.School, error) {
	var (
		s        model.School
		env      string
		sections []byte
	)
	if err := row.Scan(
		&s.ID, &s.Name, &s.Code, &s.District, &s.Sector, &s.Province, &env,
		&s.Latitude, &s.Longitude, &s.TotalStudents, &s.MaleStudents, &s.FemaleStudents,
		&s.TotalTeachers, &sections, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return model.School{}, err
	}
	s.Environment = model.Environment(env)
	if err := unpackSchoolSections(sections, &s); err != nil {
		return model.School{}, err
	}
	return s, nil
}

func collectSchools(rows pgx.Rows) ([]model.School, error) {
	defer rows.Close()
	var schools []model.School
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan school: %w", err)
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate schools: %w", err)
	}
	return schools, nil
}
