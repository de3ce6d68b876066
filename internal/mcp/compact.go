package mcp

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/ashita-ai/manabi/internal/model"
)

// compactView returns a minimal representation of a school for MCP responses.
// Drops the profile sections, coordinates, timestamps and sub-score detail
// that agents don't act on.
func compactView(v model.SchoolView) map[string]any {
	m := v.PolicyMaturity
	themes := make(map[string]any, 8)
	for _, t := range m.Themes() {
		themes[t.Code] = map[string]any{
			"score": t.Score,
			"stage": t.Stage,
		}
	}
	return map[string]any{
		"id":                v.ID,
		"name":              v.Name,
		"district":          v.District,
		"environment":       v.Environment,
		"overall_score":     m.OverallScore,
		"overall_stage":     m.OverallStage,
		"readiness_level":   m.ICTReadinessLevel,
		"data_completeness": m.DataCompleteness,
		"themes":            themes,
	}
}

// compactMaturity keeps the full theme breakdown, including sub-scores,
// and adds a one-line summary and the weakest themes.
func compactMaturity(v model.SchoolView) map[string]any {
	out := compactView(v)
	m := v.PolicyMaturity
	themes := make(map[string]any, 8)
	for _, t := range m.Themes() {
		subs := make(map[string]int, len(t.SubScores))
		for k, s := range t.SubScores {
			subs[k] = s.Score
		}
		themes[t.Code] = map[string]any{
			"name":       t.Name,
			"score":      t.Score,
			"stage":      t.Stage,
			"sub_scores": subs,
		}
	}
	out["themes"] = themes
	out["cross_cutting"] = m.CrossCuttingThemes
	out["weakest_themes"] = themeCodes(weakestThemes(m, 3))
	out["summary"] = maturitySummary(v)
	return out
}

// weakestThemes returns the n lowest-scoring themes, ties broken by
// canonical theme order.
func weakestThemes(m model.SchoolPolicyMaturity, n int) []model.PolicyThemeScore {
	themes := m.Themes()
	slices.SortStableFunc(themes, func(a, b model.PolicyThemeScore) int {
		return cmp.Compare(a.Score, b.Score)
	})
	return themes[:min(n, len(themes))]
}

func themeCodes(themes []model.PolicyThemeScore) []string {
	codes := make([]string, len(themes))
	for i, t := range themes {
		codes[i] = t.Code
	}
	return codes
}

// maturitySummary produces a one or two sentence synthesis of a school's
// maturity. Template-based.
func maturitySummary(v model.SchoolView) string {
	m := v.PolicyMaturity
	var b strings.Builder
	fmt.Fprintf(&b, "%s is %s overall (%d/100) with %s ICT readiness.",
		v.Name, m.OverallStage, m.OverallScore, m.ICTReadinessLevel)

	weak := weakestThemes(m, 2)
	if len(weak) > 0 && weak[0].Score < 50 {
		names := make([]string, 0, len(weak))
		for _, t := range weak {
			if t.Score < 50 {
				names = append(names, fmt.Sprintf("%s (%d)", t.Name, t.Score))
			}
		}
		fmt.Fprintf(&b, " Weakest: %s.", strings.Join(names, ", "))
	}
	if m.DataCompleteness < 50 {
		fmt.Fprintf(&b, " Only %d%% of the profile is recorded, so scores are conservative.", m.DataCompleteness)
	}
	return b.String()
}

// compactSimilar drops nothing but renames the similarity for readability.
func compactSimilar(s model.SimilarSchool) map[string]any {
	return map[string]any{
		"id":            s.SchoolID,
		"name":          s.Name,
		"district":      s.District,
		"similarity":    s.Similarity,
		"overall_score": s.OverallScore,
		"overall_stage": s.OverallStage,
	}
}
