package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/service/maturity"
	"github.com/ashita-ai/manabi/internal/service/readiness"
)

// scorecard is the full scoring result of one profile.
type scorecard struct {
	SchoolID   uuid.UUID                  `json:"school_id"`
	Name       string                     `json:"name"`
	District   string                     `json:"district"`
	Reports    int                        `json:"reports"`
	Maturity   model.SchoolPolicyMaturity `json:"policy_maturity"`
	Readiness  model.Readiness            `json:"readiness"`
	Breakdown  *readiness.Breakdown       `json:"readiness_breakdown,omitempty"`
	LatestDate *model.Date                `json:"latest_report_date,omitempty"`
}

func computeScorecard(p profile, now func() time.Time) scorecard {
	sc := scorecard{
		SchoolID:  p.School.ID,
		Name:      p.School.Name,
		District:  p.School.District,
		Reports:   len(p.Reports),
		Maturity:  maturity.NewFullProfileMaturityScorer().WithClock(now).Score(p.School, p.Reports),
		Readiness: readiness.ReportOnlyReadinessScorer{}.Score(p.Reports),
	}
	if latest := maturity.GetLatestReport(p.School.ID, p.Reports); latest != nil {
		b := readiness.BreakdownOf(*latest)
		d := latest.Date
		sc.Breakdown, sc.LatestDate = &b, &d
	}
	return sc
}

// rankScorecards orders by overall score descending, then name.
func rankScorecards(cards []scorecard) {
	slices.SortStableFunc(cards, func(a, b scorecard) int {
		if c := cmp.Compare(b.Maturity.OverallScore, a.Maturity.OverallScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// writeStructured encodes v as JSON or YAML. YAML goes through JSON so keys
// match the API's field names.
func writeStructured(w io.Writer, format string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if format == formatJSON {
		var buf strings.Builder
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(json.RawMessage(raw)); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		_, err = io.WriteString(w, buf.String())
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	stageColors = map[model.ProgressStage]lipgloss.Color{
		model.StageAdvanced:    "10",
		model.StageEstablished: "12",
		model.StageEmerging:    "3",
		model.StageLatent:      "9",
	}
	readinessColors = map[model.ICTReadinessLevel]lipgloss.Color{
		model.ReadinessHigh:   "10",
		model.ReadinessMedium: "3",
		model.ReadinessLow:    "9",
	}
)

func stageText(s model.ProgressStage) string {
	return lipgloss.NewStyle().Foreground(stageColors[s]).Render(string(s))
}

func readinessText(l model.ICTReadinessLevel) string {
	return lipgloss.NewStyle().Foreground(readinessColors[l]).Render(string(l))
}

// bar draws score/100 as a fixed-width bar.
func bar(score, width int) string {
	filled := min(width, max(0, score*width/100))
	return strings.Repeat("█", filled) + dimStyle.Render(strings.Repeat("░", width-filled))
}

func renderScorecard(w io.Writer, sc scorecard) {
	m := sc.Maturity
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", headerStyle.Render(sc.Name))
	fmt.Fprintf(&b, "%s\n\n", dimStyle.Render(fmt.Sprintf("%s district · %d report(s) · %d%% of profile recorded",
		sc.District, sc.Reports, m.DataCompleteness)))
	fmt.Fprintf(&b, "Overall   %3d  %s  %s\n", m.OverallScore, bar(m.OverallScore, 20), stageText(m.OverallStage))
	fmt.Fprintf(&b, "Readiness %3d  %s  %s\n\n", sc.Readiness.Score, bar(sc.Readiness.Score, 20), readinessText(sc.Readiness.Level))

	fmt.Fprintln(&b, headerStyle.Render("Policy themes"))
	for _, t := range m.Themes() {
		fmt.Fprintf(&b, "  %-28s %3d  %s  %s\n", t.Name, t.Score, bar(t.Score, 20), stageText(t.Stage))
	}

	fmt.Fprintf(&b, "\n%s\n", headerStyle.Render("Cross-cutting"))
	cc := m.CrossCuttingThemes
	for _, row := range []struct {
		name string
		s    model.StagedScore
	}{
		{"Distance education", cc.DistanceEducation},
		{"Mobiles", cc.Mobiles},
		{"Early childhood", cc.EarlyChildhood},
		{"Open educational resources", cc.OpenEducationalResources},
		{"Community involvement", cc.CommunityInvolvement},
		{"Data privacy", cc.DataPrivacy},
	} {
		fmt.Fprintf(&b, "  %-28s %3d  %s\n", row.name, row.s.Score, stageText(row.s.Stage))
	}

	if sc.Breakdown != nil {
		bd := sc.Breakdown
		fmt.Fprintf(&b, "\n%s %s\n", headerStyle.Render("Latest report"), dimStyle.Render(sc.LatestDate.String()))
		fmt.Fprintf(&b, "  infrastructure %2d/40  usage %2d/25  software %2d/15  capacity %2d/20\n",
			bd.Infrastructure, bd.Usage, bd.Software, bd.Capacity)
	} else {
		fmt.Fprintf(&b, "\n%s\n", dimStyle.Render("No reports: readiness and report-fed indicators score at their lowest rung."))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func renderRanking(w io.Writer, cards []scorecard) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-4s %-32s %-14s %7s  %-12s %s", "#", "School", "District", "Overall", "Stage", "Readiness")))
	for i, sc := range cards {
		// Pad before styling; ANSI codes would break the width verbs.
		stage := fmt.Sprintf("%-12s", sc.Maturity.OverallStage)
		fmt.Fprintf(w, "%-4d %-32s %-14s %7d  %s %s\n",
			i+1, truncate(sc.Name, 32), truncate(sc.District, 14), sc.Maturity.OverallScore,
			lipgloss.NewStyle().Foreground(stageColors[sc.Maturity.OverallStage]).Render(stage),
			readinessText(sc.Readiness.Level))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
