// Package readiness implements the report-only ICT readiness scheme used for
// map markers, quick readiness labels, document export and collection
// summaries.
//
// It is deliberately separate from package maturity. Readiness reads only the
// latest observation report and awards points on a 100-point scale:
//
//	infrastructure  0-40  devices (15), connectivity (15), power (10)
//	usage           0-25  teachers using ICT (15), weekly usage hours (10)
//	software        0-15  operating systems (5), educational software (10)
//	capacity        0-20  trained teachers (10), support staff (10)
//
// The full-profile maturity score of the same school is on a different scale
// and the two must not be mixed.
package readiness

import (
	"math"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/service/maturity"
)

// Breakdown is the per-component point award of one report.
type Breakdown struct {
	Infrastructure int `json:"infrastructure"`
	Usage          int `json:"usage"`
	Software       int `json:"software"`
	Capacity       int `json:"capacity"`
}

// Total is the sum of the component points.
func (b Breakdown) Total() int {
	return b.Infrastructure + b.Usage + b.Software + b.Capacity
}

// ReportOnlyReadinessScorer scores readiness from observation reports alone.
type ReportOnlyReadinessScorer struct{}

// Score returns the readiness of the latest report in reports. Callers pass
// the reports of a single school. With no reports the result is Low with a
// score of 0.
func (ReportOnlyReadinessScorer) Score(reports []model.ICTReport) model.Readiness {
	latest := latestOf(reports)
	if latest == nil {
		return model.Readiness{Level: model.ReadinessLow, Score: 0}
	}
	return ScoreReport(*latest)
}

// CalculateICTReadinessLevel is ReportOnlyReadinessScorer.Score.
func CalculateICTReadinessLevel(reports []model.ICTReport) model.Readiness {
	return ReportOnlyReadinessScorer{}.Score(reports)
}

// ScoreReport scores a single report.
func ScoreReport(r model.ICTReport) model.Readiness {
	score := min(100, BreakdownOf(r).Total())
	return model.Readiness{
		Level: maturity.DetermineICTReadinessLevel(float64(score)),
		Score: score,
	}
}

// BreakdownOf awards the component points of a single report. Absent
// sections earn no points.
func BreakdownOf(r model.ICTReport) Breakdown {
	infra := r.Infrastructure.OrZero()
	usage := r.Usage.OrZero()
	sw := r.Software.OrZero()
	capacity := r.Capacity.OrZero()

	var b Breakdown

	b.Infrastructure = scaled(infra.TotalDevices(), 50, 15) + connectivityPoints[infra.InternetConnection]
	if infra.PowerSource != "" {
		b.Infrastructure += 5
	}
	if len(infra.PowerBackup) > 0 {
		b.Infrastructure += 5
	}

	// Teachers using ICT stands in for staff capacity on the usage side.
	b.Usage = scaled(usage.TeachersUsingICT, capacity.TotalTeachers, 15) +
		min(10, int(math.Round(usage.WeeklyUsageHours/20*10)))

	if len(sw.OperatingSystems) > 0 {
		b.Software += 5
	}
	b.Software += min(10, 2*len(sw.EducationalSoftware))

	b.Capacity = scaled(capacity.ICTTrainedTeachers, capacity.TotalTeachers, 10)
	switch {
	case capacity.SupportStaff >= 2:
		b.Capacity += 10
	case capacity.SupportStaff == 1:
		b.Capacity += 5
	}

	return b
}

var connectivityPoints = map[model.ConnectionQuality]int{
	model.ConnectionFast:     15,
	model.ConnectionModerate: 10,
	model.ConnectionSlow:     5,
}

// scaled is min(maxPoints, round(num/den*maxPoints)); 0 when den <= 0 or
// num <= 0.
func scaled(num, den, maxPoints int) int {
	if den <= 0 || num <= 0 {
		return 0
	}
	return min(maxPoints, int(math.Round(float64(num)*float64(maxPoints)/float64(den))))
}

// latestOf returns the report with the greatest date regardless of school.
func latestOf(reports []model.ICTReport) *model.ICTReport {
	var latest *model.ICTReport
	for i := range reports {
		if latest == nil || reports[i].Date.After(latest.Date.Time) {
			latest = &reports[i]
		}
	}
	return latest
}
