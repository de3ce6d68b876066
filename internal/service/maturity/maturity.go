// Package maturity implements the full-profile policy maturity rubric: eight
// policy themes scored from a school's profile and its latest report,
// informational cross-cutting indicators, and a data completeness signal.
//
// Every function here is pure and total. Missing sections and a missing
// report degrade to the lowest-maturity branch of each rule table; nothing
// returns an error.
package maturity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/model"
)

// FullProfileMaturityScorer scores a school from its complete profile plus
// its latest report. It is distinct from the report-only readiness scheme in
// package readiness; the two produce different scales and are consumed by
// different views.
type FullProfileMaturityScorer struct {
	now func() time.Time
}

// NewFullProfileMaturityScorer returns a scorer stamping results with the
// current UTC time.
func NewFullProfileMaturityScorer() FullProfileMaturityScorer {
	return FullProfileMaturityScorer{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock returns a copy of the scorer using now for LastCalculated.
func (s FullProfileMaturityScorer) WithClock(now func() time.Time) FullProfileMaturityScorer {
	s.now = now
	return s
}

// Score computes the maturity assessment of school from the reports that
// belong to it. Reports of other schools in the slice are ignored. The
// inputs are not modified.
func (s FullProfileMaturityScorer) Score(school model.School, reports []model.ICTReport) model.SchoolPolicyMaturity {
	latest := GetLatestReport(school.ID, reports)
	p := newProfile(school, latest)

	scores := make([]model.PolicyThemeScore, len(themes))
	sum := 0
	for i, t := range themes {
		scores[i] = t.score(p)
		sum += scores[i].Score
	}
	overall := roundMean(sum, len(scores))

	now := s.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return model.SchoolPolicyMaturity{
		OverallScore:          overall,
		OverallStage:          DetermineProgressStage(float64(overall)),
		ICTReadinessLevel:     DetermineICTReadinessLevel(float64(overall)),
		VisionPlanning:        scores[0],
		ICTInfrastructure:     scores[1],
		Teachers:              scores[2],
		SkillsCompetencies:    scores[3],
		LearningResources:     scores[4],
		EMIS:                  scores[5],
		MonitoringEvaluation:  scores[6],
		EquityInclusionSafety: scores[7],
		CrossCuttingThemes:    CalculateCrossCuttingThemes(school, latest),
		LastCalculated:        now(),
		DataCompleteness:      CalculateDataCompleteness(school, latest),
	}
}

// CalculateSchoolPolicyMaturity scores school with the default full-profile
// scorer.
func CalculateSchoolPolicyMaturity(school model.School, reports []model.ICTReport) model.SchoolPolicyMaturity {
	return NewFullProfileMaturityScorer().Score(school, reports)
}

// ProfileVector returns the eight theme scores scaled to [0, 1] in canonical
// theme order. Used to find schools with a similar maturity profile.
func ProfileVector(m model.SchoolPolicyMaturity) []float32 {
	ts := m.Themes()
	v := make([]float32, len(ts))
	for i, t := range ts {
		v[i] = float32(t.Score) / 100
	}
	return v
}

// ThemeCodes returns the theme codes in canonical order.
func ThemeCodes() []string {
	codes := make([]string, len(themes))
	for i, t := range themes {
		codes[i] = t.code
	}
	return codes
}

// Leaders returns, per theme, the school with the highest score. Ties keep
// the school that appears first.
func Leaders(views []model.SchoolView) []model.ThemeLeader {
	if len(views) == 0 {
		return nil
	}
	leaders := make([]model.ThemeLeader, len(themes))
	for i, t := range themes {
		leaders[i] = model.ThemeLeader{Code: t.code, Name: t.name, SchoolID: uuid.Nil, Score: -1}
	}
	for _, v := range views {
		for i, ts := range v.PolicyMaturity.Themes() {
			if ts.Score > leaders[i].Score {
				leaders[i].SchoolID = v.ID
				leaders[i].Score = ts.Score
			}
		}
	}
	return leaders
}
