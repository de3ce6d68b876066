package schools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/service/maturity"
)

// CreateReport records a report for school schoolID and returns the report
// together with the school's recomputed view.
func (s *Service) CreateReport(ctx context.Context, schoolID uuid.UUID, r model.ICTReport) (model.ICTReport, model.SchoolView, error) {
	r.ID = uuid.Nil
	r.SchoolID = schoolID
	r.Period = strings.TrimSpace(r.Period)
	if err := model.ValidateReport(r); err != nil {
		return model.ICTReport{}, model.SchoolView{}, invalid(err)
	}
	school, err := s.store.GetSchool(ctx, schoolID)
	if err != nil {
		return model.ICTReport{}, model.SchoolView{}, fmt.Errorf("schools: create report: %w", err)
	}
	created, err := s.store.CreateReport(ctx, r)
	if err != nil {
		return model.ICTReport{}, model.SchoolView{}, fmt.Errorf("schools: create report: %w", err)
	}
	v, err := s.view(ctx, school)
	if err != nil {
		return model.ICTReport{}, model.SchoolView{}, err
	}
	s.changed(ctx, v)
	s.logger.Info("report recorded", "school_id", schoolID, "report_id", created.ID, "date", created.Date.String())
	return created, v, nil
}

// UpdateReport replaces report id. The owning school is unchanged.
func (s *Service) UpdateReport(ctx context.Context, id uuid.UUID, r model.ICTReport) (model.ICTReport, model.SchoolView, error) {
	r.ID = id
	r.Period = strings.TrimSpace(r.Period)
	if err := model.ValidateReport(r); err != nil {
		return model.ICTReport{}, model.SchoolView{}, invalid(err)
	}
	updated, err := s.store.UpdateReport(ctx, r)
	if err != nil {
		return model.ICTReport{}, model.SchoolView{}, fmt.Errorf("schools: update report: %w", err)
	}
	v, err := s.GetSchool(ctx, updated.SchoolID)
	if err != nil {
		return model.ICTReport{}, model.SchoolView{}, err
	}
	s.changed(ctx, v)
	return updated, v, nil
}

// DeleteReport removes report id and returns its school's recomputed view.
func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) (model.SchoolView, error) {
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return model.SchoolView{}, fmt.Errorf("schools: delete report: %w", err)
	}
	if err := s.store.DeleteReport(ctx, id); err != nil {
		return model.SchoolView{}, fmt.Errorf("schools: delete report: %w", err)
	}
	v, err := s.GetSchool(ctx, r.SchoolID)
	if err != nil {
		return model.SchoolView{}, err
	}
	s.changed(ctx, v)
	return v, nil
}

// GetReport returns one report.
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (model.ICTReport, error) {
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return model.ICTReport{}, fmt.Errorf("schools: get report: %w", err)
	}
	return r, nil
}

// ListReports returns the reports of school schoolID, oldest first.
func (s *Service) ListReports(ctx context.Context, schoolID uuid.UUID) ([]model.ICTReport, error) {
	if _, err := s.store.GetSchool(ctx, schoolID); err != nil {
		return nil, fmt.Errorf("schools: list reports: %w", err)
	}
	reports, err := s.store.ListReports(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("schools: list reports: %w", err)
	}
	return maturity.GetSchoolReports(schoolID, reports), nil
}
