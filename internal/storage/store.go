package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/model"
)

// Store is the persistence contract shared by DB and MemoryStore.
//
// Reports returned by ListReports and ListAllReports are ordered by report
// date ascending; reports sharing a date keep their creation order.
type Store interface {
	CreateSchool(ctx context.Context, s model.School) (model.School, error)
	UpdateSchool(ctx context.Context, s model.School) (model.School, error)
	GetSchool(ctx context.Context, id uuid.UUID) (model.School, error)
	GetSchools(ctx context.Context, ids []uuid.UUID) ([]model.School, error)
	ListSchools(ctx context.Context, filter model.SchoolFilter, limit, offset int) ([]model.School, int, error)
	DeleteSchool(ctx context.Context, id uuid.UUID) error

	CreateReport(ctx context.Context, r model.ICTReport) (model.ICTReport, error)
	UpdateReport(ctx context.Context, r model.ICTReport) (model.ICTReport, error)
	GetReport(ctx context.Context, id uuid.UUID) (model.ICTReport, error)
	ListReports(ctx context.Context, schoolID uuid.UUID) ([]model.ICTReport, error)
	ListAllReports(ctx context.Context) ([]model.ICTReport, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error

	CreateAccount(ctx context.Context, a model.Account) (model.Account, error)
	GetAccountByName(ctx context.Context, name string) (model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	CountAccounts(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Backend() string
	Close(ctx context.Context)
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*MemoryStore)(nil)
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// clampPage normalizes list pagination arguments.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
