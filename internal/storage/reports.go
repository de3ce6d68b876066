package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ashita-ai/manabi/internal/model"
)

const reportColumns = `id, school_id, report_date, period, sections, created_at, updated_at`

// reportOrder sorts a school's history oldest first. Reports sharing a date
// keep their creation order.
const reportOrder = ` ORDER BY report_date ASC, created_at ASC, id ASC`

// CreateReport inserts a report for an existing school.
func (db *DB) CreateReport(ctx context.Context, r model.ICTReport) (model.ICTReport, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	sections, err := packReportSections(r)
	if err != nil {
		return model.ICTReport{}, err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO ict_reports (`+reportColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.SchoolID, r.Date.Time, r.Period, sections, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ICTReport{}, fmt.Errorf("storage: school %s: %w", r.SchoolID, ErrNotFound)
		}
		return model.ICTReport{}, fmt.Errorf("storage: create report: %w", err)
	}
	return r, nil
}

// UpdateReport replaces the date, period and sections of a report. The owning
// school never changes; the stored school ID is returned on r.
func (db *DB) UpdateReport(ctx context.Context, r model.ICTReport) (model.ICTReport, error) {
	r.UpdatedAt = time.Now().UTC()
	sections, err := packReportSections(r)
	if err != nil {
		return model.ICTReport{}, err
	}

	err = db.pool.QueryRow(ctx,
		`UPDATE ict_reports SET report_date = $2, period = $3, sections = $4, updated_at = $5
		 WHERE id = $1
		 RETURNING school_id, created_at`,
		r.ID, r.Date.Time, r.Period, sections, r.UpdatedAt,
	).Scan(&r.SchoolID, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ICTReport{}, fmt.Errorf("storage: report %s: %w", r.ID, ErrNotFound)
		}
		return model.ICTReport{}, fmt.Errorf("storage: update report: %w", err)
	}
	return r, nil
}

// GetReport returns one report by ID.
func (db *DB) GetReport(ctx context.Context, id uuid.UUID) (model.ICTReport, error) {
	r, err := scanReport(db.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM ict_reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ICTReport{}, fmt.Errorf("storage: report %s: %w", id, ErrNotFound)
		}
		return model.ICTReport{}, fmt.Errorf("storage: get report: %w", err)
	}
	return r, nil
}

// ListReports returns every report of one school, oldest first.
func (db *DB) ListReports(ctx context.Context, schoolID uuid.UUID) ([]model.ICTReport, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM ict_reports WHERE school_id = $1`+reportOrder, schoolID)
	if err != nil {
		return nil, fmt.Errorf("storage: list reports: %w", err)
	}
	return collectReports(rows)
}

// ListAllReports returns the report history of every school, oldest first.
func (db *DB) ListAllReports(ctx context.Context) ([]model.ICTReport, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+reportColumns+` FROM ict_reports`+reportOrder)
	if err != nil {
		return nil, fmt.Errorf("storage: list all reports: %w", err)
	}
	return collectReports(rows)
}

// DeleteReport removes one report.
func (db *DB) DeleteReport(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM ict_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: report %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanReport(row pgx.Row) (model.ICTReport, error) {
	var (
		r        model.ICTReport
		date     time.Time
		sections []byte
	)
	if err := row.Scan(&r.ID, &r.SchoolID, &date, &r.Period, &sections, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return model.ICTReport{}, err
	}
	r.Date = model.NewDate(date.Year(), date.Month(), date.Day())
	if err := unpackReportSections(sections, &r); err != nil {
		return model.ICTReport{}, err
	}
	return r, nil
}

func collectReports(rows pgx.Rows) ([]model.ICTReport, error) {
	defer rows.Close()
	var reports []model.ICTReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate reports: %w", err)
	}
	return reports, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
