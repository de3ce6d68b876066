package maturity

import (
	"slices"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/model"
)

// GetLatestReport returns a copy of the report of schoolID with the greatest
// date, or nil when the school has none. On equal dates the first one in
// the slice wins.
func GetLatestReport(schoolID uuid.UUID, reports []model.ICTReport) *model.ICTReport {
	var latest *model.ICTReport
	for i := range reports {
		r := &reports[i]
		if r.SchoolID != schoolID {
			continue
		}
		if latest == nil || r.Date.After(latest.Date.Time) {
			latest = r
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}

// GetSchoolReports returns the reports of schoolID sorted by ascending date.
// Reports sharing a date keep their input order.
func GetSchoolReports(schoolID uuid.UUID, reports []model.ICTReport) []model.ICTReport {
	out := make([]model.ICTReport, 0, len(reports))
	for _, r := range reports {
		if r.SchoolID == schoolID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b model.ICTReport) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out
}
