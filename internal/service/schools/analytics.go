package schools

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/search"
	"github.com/ashita-ai/manabi/internal/service/maturity"
	"github.com/ashita-ai/manabi/internal/service/readiness"
	"github.com/ashita-ai/manabi/internal/storage"
)

// Maturity returns the current full-profile maturity of school id.
func (s *Service) Maturity(ctx context.Context, id uuid.UUID) (model.SchoolPolicyMaturity, error) {
	v, err := s.GetSchool(ctx, id)
	if err != nil {
		return model.SchoolPolicyMaturity{}, err
	}
	return v.PolicyMaturity, nil
}

// ReadinessReport is the report-only readiness of one school with the
// component points of its latest report.
type ReadinessReport struct {
	SchoolID   uuid.UUID            `json:"school_id"`
	Readiness  model.Readiness      `json:"readiness"`
	Breakdown  *readiness.Breakdown `json:"breakdown,omitempty"`
	ReportID   *uuid.UUID           `json:"report_id,omitempty"`
	ReportDate *model.Date          `json:"report_date,omitempty"`
}

// Readiness scores school id from its reports alone. A school without
// reports is Low with score 0.
func (s *Service) Readiness(ctx context.Context, id uuid.UUID) (ReadinessReport, error) {
	reports, err := s.ListReports(ctx, id)
	if err != nil {
		return ReadinessReport{}, err
	}
	out := ReadinessReport{SchoolID: id, Readiness: s.readiness.Score(reports)}
	if latest := maturity.GetLatestReport(id, reports); latest != nil {
		b := readiness.BreakdownOf(*latest)
		out.Breakdown = &b
		out.ReportID = &latest.ID
		out.ReportDate = &latest.Date
	}
	return out, nil
}

// Trend returns the report-only readiness of every report of school id,
// oldest first.
func (s *Service) Trend(ctx context.Context, id uuid.UUID) ([]model.TrendPoint, error) {
	reports, err := s.ListReports(ctx, id)
	if err != nil {
		return nil, err
	}
	points := make([]model.TrendPoint, len(reports))
	for i, r := range reports {
		rd := readiness.ScoreReport(r)
		points[i] = model.TrendPoint{
			ReportID: r.ID,
			Date:     r.Date,
			Period:   r.Period,
			Score:    rd.Score,
			Level:    rd.Level,
		}
	}
	return points, nil
}

// Summary rolls up every stored school and report.
func (s *Service) Summary(ctx context.Context) (model.SummaryStats, error) {
	var (
		schools []model.School
		reports []model.ICTReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		schools, err = s.allSchools(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		reports, err = s.store.ListAllReports(gctx)
		if err != nil {
			return fmt.Errorf("schools: summary reports: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.SummaryStats{}, err
	}
	return readiness.CalculateSummaryStats(schools, reports), nil
}

// Compare returns the maturity of MinCompare to MaxCompare distinct schools
// side by side, in the order requested, with the leading school per theme.
func (s *Service) Compare(ctx context.Context, ids []uuid.UUID) (model.Comparison, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(unique, id) {
			unique = append(unique, id)
		}
	}
	if len(unique) < MinCompare || len(unique) > MaxCompare {
		return model.Comparison{}, invalid(fmt.Errorf("compare needs %d to %d distinct schools, got %d", MinCompare, MaxCompare, len(unique)))
	}

	schools, err := s.store.GetSchools(ctx, unique)
	if err != nil {
		return model.Comparison{}, fmt.Errorf("schools: compare: %w", err)
	}
	views, err := s.views(ctx, schools)
	if err != nil {
		return model.Comparison{}, err
	}
	return model.Comparison{Schools: views, Leaders: maturity.Leaders(views)}, nil
}

// Similar returns up to limit schools whose theme profile is closest to that
// of school id.
func (s *Service) Similar(ctx context.Context, id uuid.UUID, limit int) ([]model.SimilarSchool, error) {
	if limit <= 0 {
		limit = 5
	}
	limit = min(limit, 50)

	target, err := s.GetSchool(ctx, id)
	if err != nil {
		return nil, err
	}
	vector := maturity.ProfileVector(target.PolicyMaturity)

	if s.index != nil {
		results, err := s.index.FindSimilar(ctx, vector, id, limit)
		if err == nil {
			return s.hydrate(ctx, results)
		}
		s.logger.Warn("similar: index query failed, scanning in process", "school_id", id, "error", err)
	}
	return s.scanSimilar(ctx, id, vector, limit)
}

// hydrate turns index hits into SimilarSchool entries with fresh maturity.
// Hits for schools deleted since indexing are skipped.
func (s *Service) hydrate(ctx context.Context, results []search.Result) ([]model.SimilarSchool, error) {
	out := make([]model.SimilarSchool, 0, len(results))
	for _, r := range results {
		v, err := s.GetSchool(ctx, r.SchoolID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, similarOf(v, r.Score))
	}
	return out, nil
}

func (s *Service) scanSimilar(ctx context.Context, id uuid.UUID, vector []float32, limit int) ([]model.SimilarSchool, error) {
	schools, err := s.allSchools(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, schools)
	if err != nil {
		return nil, err
	}

	idx := search.NewMemoryIndex()
	byID := make(map[uuid.UUID]model.SchoolView, len(views))
	points := make([]search.Point, 0, len(views))
	for _, v := range views {
		byID[v.ID] = v
		points = append(points, profilePoint(v))
	}
	if err := idx.Upsert(ctx, points); err != nil {
		return nil, fmt.Errorf("schools: similar: %w", err)
	}
	results, err := idx.FindSimilar(ctx, vector, id, limit)
	if err != nil {
		return nil, fmt.Errorf("schools: similar: %w", err)
	}
	out := make([]model.SimilarSchool, 0, len(results))
	for _, r := range results {
		out = append(out, similarOf(byID[r.SchoolID], r.Score))
	}
	return out, nil
}

func similarOf(v model.SchoolView, score float32) model.SimilarSchool {
	return model.SimilarSchool{
		SchoolID:     v.ID,
		Name:         v.Name,
		District:     v.District,
		Similarity:   score,
		OverallScore: v.PolicyMaturity.OverallScore,
		OverallStage: v.PolicyMaturity.OverallStage,
	}
}

// ExportRow is one school in a bulk export.
type ExportRow struct {
	model.SchoolView
	Readiness model.Readiness `json:"readiness"`
}

// Export streams every school with its maturity and report-only readiness
// to emit, in name order. Scoring runs in parallel; emit is called from a
// single goroutine.
func (s *Service) Export(ctx context.Context, emit func(ExportRow) error) error {
	schools, err := s.allSchools(ctx)
	if err != nil {
		return err
	}
	reports, err := s.store.ListAllReports(ctx)
	if err != nil {
		return fmt.Errorf("schools: export reports: %w", err)
	}
	bySchool := make(map[uuid.UUID][]model.ICTReport, len(schools))
	for _, r := range reports {
		bySchool[r.SchoolID] = append(bySchool[r.SchoolID], r)
	}

	rows := make([]ExportRow, len(schools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, school := range schools {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			own := bySchool[school.ID]
			rows[i] = ExportRow{
				SchoolView: model.SchoolView{School: school, PolicyMaturity: s.maturity.Score(school, own)},
				Readiness:  s.readiness.Score(own),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, row := range rows {
		if err := emit(row); err != nil {
			return err
		}
	}
	return nil
}

// Reindex pushes the profile of every school to the profile sink and
// returns how many were queued.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.sink == nil {
		return 0, nil
	}
	schools, err := s.allSchools(ctx)
	if err != nil {
		return 0, err
	}
	views, err := s.views(ctx, schools)
	if err != nil {
		return 0, err
	}
	for _, v := range views {
		s.sink.Upsert(profilePoint(v))
	}
	return len(views), nil
}
