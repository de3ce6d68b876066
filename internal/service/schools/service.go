// Package schools is the application service for school profiles and ICT
// reports. HTTP handlers, MCP tools and the export job all go through it.
//
// Maturity is never stored. Every read and every mutation recomputes the
// SchoolView from the stored profile and the school's current report set.
package schools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/search"
	"github.com/ashita-ai/manabi/internal/service/maturity"
	"github.com/ashita-ai/manabi/internal/service/readiness"
	"github.com/ashita-ai/manabi/internal/telemetry"
)

// ErrValidation marks rejected input. It wraps *model.ValidationError when
// field-level detail is available.
var ErrValidation = errors.New("schools: invalid input")

// Comparison bounds.
const (
	MinCompare = 2
	MaxCompare = 5
)

// Store is the persistence the service needs.
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
}

// MaturityScorer computes full-profile maturity.
type MaturityScorer interface {
	Score(school model.School, reports []model.ICTReport) model.SchoolPolicyMaturity
}

// ReadinessScorer computes report-only readiness.
type ReadinessScorer interface {
	Score(reports []model.ICTReport) model.Readiness
}

// ProfileSink receives theme-profile changes for the similarity index.
type ProfileSink interface {
	Upsert(p search.Point)
	Delete(id uuid.UUID)
}

// MaturityHook is notified after a mutation changes a school's maturity.
// Hooks run asynchronously; errors are logged.
type MaturityHook interface {
	OnMaturityChanged(ctx context.Context, view model.SchoolView) error
}

// Service implements school and report operations.
type Service struct {
	store     Store
	maturity  MaturityScorer
	readiness ReadinessScorer
	index     search.Index
	sink      ProfileSink
	hooks     []MaturityHook
	workers   int
	logger    *slog.Logger

	computeDuration metric.Float64Histogram
	overallScore    metric.Int64Histogram
}

// Option configures a Service.
type Option func(*Service)

// WithMaturityScorer replaces the full-profile scorer.
func WithMaturityScorer(m MaturityScorer) Option {
	return func(s *Service) { s.maturity = m }
}

// WithReadinessScorer replaces the report-only readiness scorer.
func WithReadinessScorer(r ReadinessScorer) Option {
	return func(s *Service) { s.readiness = r }
}

// WithIndex serves Similar from idx instead of an in-process scan.
func WithIndex(idx search.Index) Option {
	return func(s *Service) { s.index = idx }
}

// WithProfileSink forwards theme-profile changes to sink.
func WithProfileSink(sink ProfileSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithHooks registers maturity-change hooks.
func WithHooks(hooks ...MaturityHook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, hooks...) }
}

// WithWorkers bounds the fan-out of bulk scoring. n <= 0 keeps the default.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Service over store. A nil logger uses slog.Default.
func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	meter := telemetry.Meter("manabi/schools")
	computeDur, _ := meter.Float64Histogram("manabi.maturity.compute_duration",
		metric.WithDescription("Time to load a school's reports and compute its maturity (ms)"),
		metric.WithUnit("ms"),
	)
	overall, _ := meter.Int64Histogram("manabi.maturity.overall_score",
		metric.WithDescription("Overall policy maturity score of computed school views"),
	)

	s := &Service{
		store:           store,
		maturity:        maturity.NewFullProfileMaturityScorer(),
		readiness:       readiness.ReportOnlyReadinessScorer{},
		workers:         8,
		logger:          logger,
		computeDuration: computeDur,
		overallScore:    overall,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// view loads the reports of school and computes its maturity.
func (s *Service) view(ctx context.Context, school model.School) (model.SchoolView, error) {
	start := time.Now()
	reports, err := s.store.ListReports(ctx, school.ID)
	if err != nil {
		return model.SchoolView{}, fmt.Errorf("schools: load reports of %s: %w", school.ID, err)
	}
	m := s.maturity.Score(school, reports)
	s.computeDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	s.overallScore.Record(ctx, int64(m.OverallScore),
		metric.WithAttributes(attribute.String("manabi.stage", string(m.OverallStage))))
	return model.SchoolView{School: school, PolicyMaturity: m}, nil
}

// views computes the views of schools concurrently, preserving order.
func (s *Service) views(ctx context.Context, schools []model.School) ([]model.SchoolView, error) {
	out := make([]model.SchoolView, len(schools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, school := range schools {
		g.Go(func() error {
			v, err := s.view(gctx, school)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// changed publishes a recomputed view to the similarity index and hooks.
func (s *Service) changed(ctx context.Context, v model.SchoolView) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("manabi.school_id", v.ID.String()),
		attribute.Int("manabi.overall_score", v.PolicyMaturity.OverallScore),
	)
	if s.sink != nil {
		s.sink.Upsert(profilePoint(v))
	}
	if len(s.hooks) == 0 {
		return
	}
	hooks := s.hooks
	go func() {
		hookCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, h := range hooks {
			if err := h.OnMaturityChanged(hookCtx, v); err != nil {
				s.logger.Warn("maturity hook failed", "school_id", v.ID, "error", err)
			}
		}
	}()
}

func profilePoint(v model.SchoolView) search.Point {
	return search.Point{
		SchoolID:    v.ID,
		District:    v.District,
		Environment: string(v.Environment),
		Overall:     v.PolicyMaturity.OverallScore,
		Vector:      maturity.ProfileVector(v.PolicyMaturity),
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
