package schools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/model"
)

func normalizeSchool(s *model.School) {
	s.Name = strings.TrimSpace(s.Name)
	s.Code = strings.TrimSpace(s.Code)
	s.District = strings.TrimSpace(s.District)
	s.Sector = strings.TrimSpace(s.Sector)
	s.Province = strings.TrimSpace(s.Province)
}

// CreateSchool registers a school profile and returns it with its maturity.
func (s *Service) CreateSchool(ctx context.Context, school model.School) (model.SchoolView, error) {
	school.ID = uuid.Nil
	normalizeSchool(&school)
	if err := model.ValidateSchool(school); err != nil {
		return model.SchoolView{}, invalid(err)
	}
	created, err := s.store.CreateSchool(ctx, school)
	if err != nil {
		return model.SchoolView{}, fmt.Errorf("schools: create: %w", err)
	}
	v, err := s.view(ctx, created)
	if err != nil {
		return model.SchoolView{}, err
	}
	s.changed(ctx, v)
	s.logger.Info("school created", "school_id", v.ID, "district", v.District, "overall_score", v.PolicyMaturity.OverallScore)
	return v, nil
}

// UpdateSchool replaces the profile of school id.
func (s *Service) UpdateSchool(ctx context.Context, id uuid.UUID, school model.School) (model.SchoolView, error) {
	school.ID = id
	normalizeSchool(&school)
	if err := model.ValidateSchool(school); err != nil {
		return model.SchoolView{}, invalid(err)
	}
	updated, err := s.store.UpdateSchool(ctx, school)
	if err != nil {
		return model.SchoolView{}, fmt.Errorf("schools: update: %w", err)
	}
	v, err := s.view(ctx, updated)
	if err != nil {
		return model.SchoolView{}, err
	}
	s.changed(ctx, v)
	return v, nil
}

// GetSchool returns school id with its current maturity.
func (s *Service) GetSchool(ctx context.Context, id uuid.UUID) (model.SchoolView, error) {
	school, err := s.store.GetSchool(ctx, id)
	if err != nil {
		return model.SchoolView{}, fmt.Errorf("schools: get: %w", err)
	}
	return s.view(ctx, school)
}

// ListSchools returns a page of schools with their maturity, and the total
// number matching filter.
func (s *Service) ListSchools(ctx context.Context, filter model.SchoolFilter, limit, offset int) ([]model.SchoolView, int, error) {
	page, total, err := s.store.ListSchools(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("schools: list: %w", err)
	}
	views, err := s.views(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// DeleteSchool removes a school and all of its reports.
func (s *Service) DeleteSchool(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteSchool(ctx, id); err != nil {
		return fmt.Errorf("schools: delete: %w", err)
	}
	if s.sink != nil {
		s.sink.Delete(id)
	}
	s.logger.Info("school deleted", "school_id", id)
	return nil
}

// allSchools pages through every stored school.
func (s *Service) allSchools(ctx context.Context) ([]model.School, error) {
	const pageSize = 500
	var all []model.School
	for offset := 0; ; offset += pageSize {
		page, total, err := s.store.ListSchools(ctx, model.SchoolFilter{}, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("schools: list all: %w", err)
		}
		all = append(all, page...)
		if len(page) < pageSize || len(all) >= total {
			return all, nil
		}
	}
}
