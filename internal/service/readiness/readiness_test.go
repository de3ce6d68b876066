package readiness_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/service/maturity"
	"github.com/ashita-ai/manabi/internal/service/readiness"
)

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func typicalReport(t *testing.T, schoolID uuid.UUID, date string) model.ICTReport {
	return model.ICTReport{
		ID:       uuid.New(),
		SchoolID: schoolID,
		Date:     mustDate(t, date),
		Infrastructure: model.Some(model.ReportInfrastructure{
			Computers:          20,
			Tablets:            5,
			InternetConnection: model.ConnectionModerate,
			PowerSource:        "Grid",
		}),
		Usage:    model.Some(model.ReportUsage{TeachersUsingICT: 6, WeeklyUsageHours: 10}),
		Software: model.Some(model.ReportSoftware{OperatingSystems: []string{"Ubuntu"}, EducationalSoftware: []string{"GCompris", "Scratch"}}),
		Capacity: model.Some(model.ReportCapacity{ICTTrainedTeachers: 9, SupportStaff: 1, TotalTeachers: 12}),
	}
}

func fullReport(t *testing.T, schoolID uuid.UUID, date string) model.ICTReport {
	return model.ICTReport{
		ID:       uuid.New(),
		SchoolID: schoolID,
		Date:     mustDate(t, date),
		Infrastructure: model.Some(model.ReportInfrastructure{
			Computers:          40,
			Tablets:            15,
			Projectors:         5,
			InternetConnection: model.ConnectionFast,
			PowerSource:        "Grid",
			PowerBackup:        []string{"Solar"},
		}),
		Usage: model.Some(model.ReportUsage{TeachersUsingICT: 12, WeeklyUsageHours: 30}),
		Software: model.Some(model.ReportSoftware{
			OperatingSystems:    []string{"Ubuntu", "Windows"},
			EducationalSoftware: []string{"GCompris", "Scratch", "Kolibri", "Tux Paint", "Stellarium", "GeoGebra"},
		}),
		Capacity: model.Some(model.ReportCapacity{ICTTrainedTeachers: 12, SupportStaff: 2, TotalTeachers: 12}),
	}
}

func TestBreakdownOf_Typical(t *testing.T) {
	b := readiness.BreakdownOf(typicalReport(t, uuid.New(), "2025-01-01"))
	assert.Equal(t, 23, b.Infrastructure) // devices 8 + moderate 10 + power source 5
	assert.Equal(t, 13, b.Usage)          // 6/12 teachers 8 + 10 hours 5
	assert.Equal(t, 9, b.Software)        // os 5 + two titles 4
	assert.Equal(t, 13, b.Capacity)       // 9/12 trained 8 + one support staff 5
	assert.Equal(t, 58, b.Total())
}

func TestScoreReport_Full(t *testing.T) {
	r := fullReport(t, uuid.New(), "2025-01-01")
	b := readiness.BreakdownOf(r)
	assert.Equal(t, readiness.Breakdown{Infrastructure: 40, Usage: 25, Software: 15, Capacity: 20}, b)

	got := readiness.ScoreReport(r)
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, model.ReadinessHigh, got.Level)
}

func TestCalculateICTReadinessLevel_NoReports(t *testing.T) {
	got := readiness.CalculateICTReadinessLevel(nil)
	assert.Equal(t, model.Readiness{Level: model.ReadinessLow, Score: 0}, got)
}

func TestCalculateICTReadinessLevel_EmptySections(t *testing.T) {
	r := model.ICTReport{ID: uuid.New(), Date: mustDate(t, "2025-01-01")}
	got := readiness.CalculateICTReadinessLevel([]model.ICTReport{r})
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, model.ReadinessLow, got.Level)
}

func TestCalculateICTReadinessLevel_UsesLatest(t *testing.T) {
	id := uuid.New()
	old := fullReport(t, id, "2024-01-01")
	newer := typicalReport(t, id, "2024-09-01")

	got := readiness.ReportOnlyReadinessScorer{}.Score([]model.ICTReport{newer, old})
	assert.Equal(t, 58, got.Score)
	assert.Equal(t, model.ReadinessMedium, got.Level)
}

func TestCalculateICTReadinessLevel_ZeroTeachers(t *testing.T) {
	r := typicalReport(t, uuid.New(), "2025-01-01")
	r.Capacity = model.Some(model.ReportCapacity{ICTTrainedTeachers: 4})
	b := readiness.BreakdownOf(r)
	assert.Equal(t, 5, b.Usage, "teacher ratio with no recorded teachers scores 0")
	assert.Equal(t, 0, b.Capacity)
}

func TestReadinessDiffersFromMaturity(t *testing.T) {
	// The two schemes score the same school on different scales.
	s := model.School{ID: uuid.New(), Name: "Gisozi", District: "Gasabo"}
	r := fullReport(t, s.ID, "2025-01-01")

	rd := readiness.CalculateICTReadinessLevel([]model.ICTReport{r})
	mat := maturity.CalculateSchoolPolicyMaturity(s, []model.ICTReport{r})
	assert.Equal(t, 100, rd.Score)
	assert.Less(t, mat.OverallScore, rd.Score)
}

func TestCalculateSummaryStats(t *testing.T) {
	a := model.School{ID: uuid.New(), Name: "Bravo", District: "Gasabo", Environment: model.EnvironmentUrban}
	b := model.School{ID: uuid.New(), Name: "Alpha", District: "Gasabo", Environment: model.EnvironmentUrban}
	c := model.School{ID: uuid.New(), Name: "Charlie", District: "Nyagatare", Environment: model.EnvironmentRural,
		Internet: model.Some(model.Internet{HasInternet: true})}
	d := model.School{ID: uuid.New(), Name: "Delta", District: "Nyagatare", Environment: model.EnvironmentRural}

	ra := fullReport(t, a.ID, "2025-01-01")
	rb := typicalReport(t, b.ID, "2025-01-01")
	// Superseded by rb.
	rbOld := fullReport(t, b.ID, "2024-01-01")
	rdNone := typicalReport(t, d.ID, "2025-02-01")
	rdNone.Infrastructure = model.Some(model.ReportInfrastructure{Computers: 3, InternetConnection: model.ConnectionNone})

	stats := readiness.CalculateSummaryStats(
		[]model.School{a, b, c, d},
		[]model.ICTReport{ra, rb, rbOld, rdNone},
	)

	assert.Equal(t, 4, stats.TotalSchools)
	// a and b via reports, c via its profile; d reports no connection.
	assert.Equal(t, 75, stats.SchoolsWithInternetPercent)
	assert.InDelta(t, 21.0, stats.AverageComputers, 1e-9) // (40+20+3)/3
	assert.Equal(t, map[string]int{"Gasabo": 2, "Nyagatare": 2}, stats.DistrictDistribution)
	assert.Equal(t, map[model.Environment]int{model.EnvironmentUrban: 2, model.EnvironmentRural: 2}, stats.EnvironmentDistribution)

	require.Len(t, stats.TopSchools, 4)
	assert.Equal(t, a.ID, stats.TopSchools[0].SchoolID)
	assert.Equal(t, 100, stats.TopSchools[0].Score)
	assert.Equal(t, b.ID, stats.TopSchools[1].SchoolID)
	// c has no reports; d scores on its latest report.
	assert.Equal(t, d.ID, stats.TopSchools[2].SchoolID)
	assert.Equal(t, c.ID, stats.TopSchools[3].SchoolID)
	assert.Equal(t, 0, stats.TopSchools[3].Score)
}

func TestCalculateSummaryStats_TopSchoolsLimitAndTies(t *testing.T) {
	var schools []model.School
	for _, name := range []string{"F", "E", "D", "C", "B", "A", "G"} {
		schools = append(schools, model.School{ID: uuid.New(), Name: name, District: "Huye"})
	}
	stats := readiness.CalculateSummaryStats(schools, nil)
	require.Len(t, stats.TopSchools, readiness.TopSchoolsLimit)
	names := make([]string, 0, len(stats.TopSchools))
	for _, s := range stats.TopSchools {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)
	assert.Equal(t, 0, stats.SchoolsWithInternetPercent)
	assert.Zero(t, stats.AverageComputers)
}

func TestCalculateSummaryStats_Empty(t *testing.T) {
	stats := readiness.CalculateSummaryStats(nil, nil)
	assert.Equal(t, 0, stats.TotalSchools)
	assert.Equal(t, 0, stats.SchoolsWithInternetPercent)
	assert.Empty(t, stats.TopSchools)
	assert.NotNil(t, stats.DistrictDistribution)
}
