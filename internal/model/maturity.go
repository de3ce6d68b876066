package model

import (
	"time"

	"github.com/google/uuid"
)

// ProgressStage is the ordinal maturity stage of a score.
type ProgressStage string

const (
	StageLatent      ProgressStage = "Latent"
	StageEmerging    ProgressStage = "Emerging"
	StageEstablished ProgressStage = "Established"
	StageAdvanced    ProgressStage = "Advanced"
)

// Rank orders stages ascending, Latent = 0. Unknown values rank -1.
func (s ProgressStage) Rank() int {
	switch s {
	case StageLatent:
		return 0
	case StageEmerging:
		return 1
	case StageEstablished:
		return 2
	case StageAdvanced:
		return 3
	default:
		return -1
	}
}

// ICTReadinessLevel is the ordinal readiness label of a score.
type ICTReadinessLevel string

const (
	ReadinessLow    ICTReadinessLevel = "Low"
	ReadinessMedium ICTReadinessLevel = "Medium"
	ReadinessHigh   ICTReadinessLevel = "High"
)

// Rank orders readiness levels ascending, Low = 0. Unknown values rank -1.
func (l ICTReadinessLevel) Rank() int {
	switch l {
	case ReadinessLow:
		return 0
	case ReadinessMedium:
		return 1
	case ReadinessHigh:
		return 2
	default:
		return -1
	}
}

// Policy theme codes.
const (
	ThemeVisionPlanning        = "vision_planning"
	ThemeICTInfrastructure     = "ict_infrastructure"
	ThemeTeachers              = "teachers"
	ThemeSkillsCompetencies    = "skills_competencies"
	ThemeLearningResources     = "learning_resources"
	ThemeEMIS                  = "emis"
	ThemeMonitoringEvaluation  = "monitoring_evaluation"
	ThemeEquityInclusionSafety = "equity_inclusion_safety"
)

// SubScore is one sub-indicator inside a policy theme.
type SubScore struct {
	Name  string        `json:"name"`
	Score int           `json:"score"`
	Stage ProgressStage `json:"stage"`
}

// PolicyThemeScore is the score of one policy theme. Values are produced fresh
// on every computation.
type PolicyThemeScore struct {
	Code      string              `json:"code"`
	Name      string              `json:"name"`
	Score     int                 `json:"score"`
	Stage     ProgressStage       `json:"stage"`
	SubScores map[string]SubScore `json:"sub_scores"`
}

// StagedScore is a score paired with its progress stage.
type StagedScore struct {
	Score int           `json:"score"`
	Stage ProgressStage `json:"stage"`
}

// CrossCuttingThemes are informational indicators that never feed the overall
// maturity score.
type CrossCuttingThemes struct {
	DistanceEducation        StagedScore `json:"distance_education"`
	Mobiles                  StagedScore `json:"mobiles"`
	EarlyChildhood           StagedScore `json:"early_childhood"`
	OpenEducationalResources StagedScore `json:"open_educational_resources"`
	CommunityInvolvement     StagedScore `json:"community_involvement"`
	DataPrivacy              StagedScore `json:"data_privacy"`
}

// SchoolPolicyMaturity is the full-profile maturity assessment of a school.
// It is a disposable snapshot derived from the school and its reports.
type SchoolPolicyMaturity struct {
	OverallScore      int               `json:"overall_score"`
	OverallStage      ProgressStage     `json:"overall_stage"`
	ICTReadinessLevel ICTReadinessLevel `json:"ict_readiness_level"`

	VisionPlanning        PolicyThemeScore `json:"vision_planning"`
	ICTInfrastructure     PolicyThemeScore `json:"ict_infrastructure"`
	Teachers              PolicyThemeScore `json:"teachers"`
	SkillsCompetencies    PolicyThemeScore `json:"skills_competencies"`
	LearningResources     PolicyThemeScore `json:"learning_resources"`
	EMIS                  PolicyThemeScore `json:"emis"`
	MonitoringEvaluation  PolicyThemeScore `json:"monitoring_evaluation"`
	EquityInclusionSafety PolicyThemeScore `json:"equity_inclusion_safety"`

	CrossCuttingThemes CrossCuttingThemes `json:"cross_cutting_themes"`
	LastCalculated     time.Time          `json:"last_calculated"`
	DataCompleteness   int                `json:"data_completeness"`
}

// Themes returns the eight policy themes in their canonical order.
func (m SchoolPolicyMaturity) Themes() []PolicyThemeScore {
	return []PolicyThemeScore{
		m.VisionPlanning,
		m.ICTInfrastructure,
		m.Teachers,
		m.SkillsCompetencies,
		m.LearningResources,
		m.EMIS,
		m.MonitoringEvaluation,
		m.EquityInclusionSafety,
	}
}

// Readiness is the result of report-only readiness scoring.
type Readiness struct {
	Level ICTReadinessLevel `json:"level"`
	Score int               `json:"score"`
}

// SchoolView is a school together with the maturity derived from its current
// state at read time.
type SchoolView struct {
	School
	PolicyMaturity SchoolPolicyMaturity `json:"policy_maturity"`
}

// RankedSchool is an entry in a top-schools list.
type RankedSchool struct {
	SchoolID  uuid.UUID         `json:"school_id"`
	Name      string            `json:"name"`
	District  string            `json:"district"`
	Score     int               `json:"score"`
	Readiness ICTReadinessLevel `json:"readiness"`
}

// SummaryStats is the roll-up across a school collection.
type SummaryStats struct {
	TotalSchools               int                 `json:"total_schools"`
	SchoolsWithInternetPercent int                 `json:"schools_with_internet_percent"`
	AverageComputers           float64             `json:"average_computers"`
	TopSchools                 []RankedSchool      `json:"top_schools"`
	DistrictDistribution       map[string]int      `json:"district_distribution"`
	EnvironmentDistribution    map[Environment]int `json:"environment_distribution"`
}

// TrendPoint is the report-only readiness of one report in a school's history.
type TrendPoint struct {
	ReportID uuid.UUID         `json:"report_id"`
	Date     Date              `json:"date"`
	Period   string            `json:"period"`
	Score    int               `json:"score"`
	Level    ICTReadinessLevel `json:"level"`
}

// ThemeLeader names the compared school with the highest score on a theme.
type ThemeLeader struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	SchoolID uuid.UUID `json:"school_id"`
	Score    int       `json:"score"`
}

// Comparison is a side-by-side maturity view of several schools.
type Comparison struct {
	Schools []SchoolView  `json:"schools"`
	Leaders []ThemeLeader `json:"leaders"`
}

// SimilarSchool is a peer school ranked by theme-profile similarity.
type SimilarSchool struct {
	SchoolID     uuid.UUID     `json:"school_id"`
	Name         string        `json:"name"`
	District     string        `json:"district"`
	Similarity   float32       `json:"similarity"`
	OverallScore int           `json:"overall_score"`
	OverallStage ProgressStage `json:"overall_stage"`
}
