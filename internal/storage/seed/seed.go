// Package seed loads the embedded demo dataset of schools and ICT reports.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/ashita-ai/manabi/internal/model"
)

//go:embed demo.json
var demoJSON []byte

// Dataset is a set of school profiles and their reports.
type Dataset struct {
	Schools []model.School    `json:"schools"`
	Reports []model.ICTReport `json:"reports"`
}

// Writer is the subset of the store the loader needs.
type Writer interface {
	ListSchools(ctx context.Context, filter model.SchoolFilter, limit, offset int) ([]model.School, int, error)
	CreateSchool(ctx context.Context, s model.School) (model.School, error)
	CreateReport(ctx context.Context, r model.ICTReport) (model.ICTReport, error)
}

// Demo parses the embedded demo dataset. Every record passes validation.
func Demo() (Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(demoJSON, &ds); err != nil {
		return Dataset{}, fmt.Errorf("seed: decode demo data: %w", err)
	}
	for _, s := range ds.Schools {
		if err := model.ValidateSchool(s); err != nil {
			return Dataset{}, fmt.Errorf("seed: school %s: %w", s.Name, err)
		}
	}
	for _, r := range ds.Reports {
		if err := model.ValidateReport(r); err != nil {
			return Dataset{}, fmt.Errorf("seed: report %s: %w", r.ID, err)
		}
	}
	return ds, nil
}

// LoadIfEmpty writes the demo dataset into w when w has no schools yet. It
// reports whether anything was written.
func LoadIfEmpty(ctx context.Context, w Writer) (bool, error) {
	_, total, err := w.ListSchools(ctx, model.SchoolFilter{}, 1, 0)
	if err != nil {
		return false, fmt.Errorf("seed: count schools: %w", err)
	}
	if total > 0 {
		return false, nil
	}
	ds, err := Demo()
	if err != nil {
		return false, err
	}
	for _, s := range ds.Schools {
		if _, err := w.CreateSchool(ctx, s); err != nil {
			return false, fmt.Errorf("seed: create school %s: %w", s.Name, err)
		}
	}
	for _, r := range ds.Reports {
		if _, err := w.CreateReport(ctx, r); err != nil {
			return false, fmt.Errorf("seed: create report %s: %w", r.ID, err)
		}
	}
	return true, nil
}
