package readiness

import (
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/service/maturity"
)

// TopSchoolsLimit is the number of schools listed in SummaryStats.TopSchools.
const TopSchoolsLimit = 5

// CalculateSummaryStats rolls up a school collection. Readiness is the
// report-only score of each school's reports; connectivity and computer
// counts come from each school's latest report.
func CalculateSummaryStats(schools []model.School, reports []model.ICTReport) model.SummaryStats {
	bySchool := make(map[uuid.UUID][]model.ICTReport, len(schools))
	for _, r := range reports {
		bySchool[r.SchoolID] = append(bySchool[r.SchoolID], r)
	}

	stats := model.SummaryStats{
		TotalSchools:            len(schools),
		TopSchools:              []model.RankedSchool{},
		DistrictDistribution:    make(map[string]int),
		EnvironmentDistribution: make(map[model.Environment]int),
	}

	var withInternet, computers, withComputers int
	ranked := make([]model.RankedSchool, 0, len(schools))
	for _, s := range schools {
		stats.DistrictDistribution[s.District]++
		stats.EnvironmentDistribution[s.Environment]++

		own := bySchool[s.ID]
		latest := maturity.GetLatestReport(s.ID, own)
		if hasInternet(s, latest) {
			withInternet++
		}
		if latest != nil {
			if infra, ok := latest.Infrastructure.Get(); ok {
				computers += infra.Computers
				withComputers++
			}
		}

		rd := CalculateICTReadinessLevel(own)
		ranked = append(ranked, model.RankedSchool{
			SchoolID:  s.ID,
			Name:      s.Name,
			District:  s.District,
			Score:     rd.Score,
			Readiness: rd.Level,
		})
	}

	if len(schools) > 0 {
		stats.SchoolsWithInternetPercent = int(math.Round(float64(withInternet) / float64(len(schools)) * 100))
	}
	if withComputers > 0 {
		stats.AverageComputers = math.Round(float64(computers)/float64(withComputers)*10) / 10
	}

	slices.SortStableFunc(ranked, func(a, b model.RankedSchool) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(ranked) > TopSchoolsLimit {
		ranked = ranked[:TopSchoolsLimit]
	}
	stats.TopSchools = ranked
	return stats
}

// hasInternet prefers the latest report's observed connectivity and falls
// back to the school profile when no report records it.
func hasInternet(s model.School, latest *model.ICTReport) bool {
	if latest != nil {
		if infra, ok := latest.Infrastructure.Get(); ok && infra.InternetConnection != "" {
			return infra.InternetConnection != model.ConnectionNone
		}
	}
	return s.Internet.OrZero().HasInternet
}
