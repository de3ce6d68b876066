package model

import (
	"time"

	"github.com/google/uuid"
)

// Environment classifies a school's surroundings.
type Environment string

const (
	EnvironmentUrban     Environment = "Urban"
	EnvironmentRural     Environment = "Rural"
	EnvironmentPeriUrban Environment = "Peri-urban"
)

// CompetencyLevel is the assessed ICT competency of a school's teaching staff.
type CompetencyLevel string

const (
	CompetencyBasic        CompetencyLevel = "Basic"
	CompetencyIntermediate CompetencyLevel = "Intermediate"
	CompetencyAdvanced     CompetencyLevel = "Advanced"
)

// UsageFrequency is how often digital tools are used in teaching.
type UsageFrequency string

const (
	UsageDaily   UsageFrequency = "Daily"
	UsageWeekly  UsageFrequency = "Weekly"
	UsageMonthly UsageFrequency = "Monthly"
	UsageRarely  UsageFrequency = "Rarely"
)

// School is the static profile of a monitored primary school. Its policy
// maturity is never stored on the record; it is derived on read from the
// current profile and the school's current report set.
type School struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name" validate:"required,notblank,max=200"`
	Code        string      `json:"code,omitempty" validate:"max=50"`
	District    string      `json:"district" validate:"required,notblank,max=100"`
	Sector      string      `json:"sector,omitempty" validate:"max=100"`
	Province    string      `json:"province,omitempty" validate:"max=100"`
	Environment Environment `json:"environment" validate:"required,oneof=Urban Rural Peri-urban"`
	Latitude    *float64    `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64    `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`

	TotalStudents  int `json:"total_students" validate:"min=0"`
	MaleStudents   int `json:"male_students" validate:"min=0"`
	FemaleStudents int `json:"female_students" validate:"min=0"`
	TotalTeachers  int `json:"total_teachers" validate:"min=0"`

	Infrastructure      Section[SchoolInfrastructure] `json:"infrastructure,omitzero"`
	Internet            Section[Internet]             `json:"internet,omitzero"`
	Software            Section[SchoolSoftware]       `json:"software,omitzero"`
	HumanCapacity       Section[HumanCapacity]        `json:"human_capacity,omitzero"`
	PedagogicalUsage    Section[PedagogicalUsage]     `json:"pedagogical_usage,omitzero"`
	Governance          Section[Governance]           `json:"governance,omitzero"`
	StudentEngagement   Section[StudentEngagement]    `json:"student_engagement,omitzero"`
	CommunityEngagement Section[CommunityEngagement]  `json:"community_engagement,omitzero"`
	Security            Section[Security]             `json:"security,omitzero"`
	Accessibility       Section[Accessibility]        `json:"accessibility,omitzero"`
	EnvironmentPractice Section[EnvironmentPractice]  `json:"environmental_practice,omitzero"`
	Performance         Section[Performance]          `json:"performance,omitzero"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SchoolInfrastructure struct {
	HasElectricity    bool     `json:"has_electricity"`
	PowerSource       string   `json:"power_source" validate:"max=100"`
	PowerBackup       []string `json:"power_backup" validate:"max=10,dive,max=100"`
	HasComputerLab    bool     `json:"has_computer_lab"`
	ClassroomsWithICT int      `json:"classrooms_with_ict" validate:"min=0"`
}

type Internet struct {
	HasInternet    bool    `json:"has_internet"`
	ConnectionType string  `json:"connection_type" validate:"max=100"`
	SpeedMbps      float64 `json:"speed_mbps" validate:"min=0"`
	Provider       string  `json:"provider" validate:"max=200"`
	WifiCoverage   string  `json:"wifi_coverage" validate:"max=100"`
}

type SchoolSoftware struct {
	OperatingSystems    []string `json:"operating_systems" validate:"max=20,dive,max=100"`
	EducationalSoftware []string `json:"educational_software" validate:"max=50,dive,max=200"`
	HasLMS              bool     `json:"has_lms"`
	HasDigitalLibrary   bool     `json:"has_digital_library"`
	HasLocalContent     bool     `json:"has_local_content"`
}

type HumanCapacity struct {
	ICTTrainedTeachers     int             `json:"ict_trained_teachers" validate:"min=0"`
	TeacherCompetencyLevel CompetencyLevel `json:"teacher_competency_level" validate:"omitempty,oneof=Basic Intermediate Advanced"`
	HasCapacityBuilding    bool            `json:"has_capacity_building"`
	MonthlyTrainings       int             `json:"monthly_trainings" validate:"min=0"`
	HasICTCoordinator      bool            `json:"has_ict_coordinator"`
}

type PedagogicalUsage struct {
	DigitalToolUsageFrequency UsageFrequency `json:"digital_tool_usage_frequency" validate:"omitempty,oneof=Daily Weekly Monthly Rarely"`
	UsesBlendedLearning       bool           `json:"uses_blended_learning"`
	HasDigitalContent         bool           `json:"has_digital_content"`
	UsesICTAssessments        bool           `json:"uses_ict_assessments"`
	Innovations               string         `json:"innovations" validate:"max=2000"`
	SubjectsUsingICT          []string       `json:"subjects_using_ict" validate:"max=30,dive,max=100"`
}

type Governance struct {
	HasICTPolicy                bool `json:"has_ict_policy"`
	AlignedWithNationalStrategy bool `json:"aligned_with_national_strategy"`
	HasICTCommittee             bool `json:"has_ict_committee"`
	HasICTBudget                bool `json:"has_ict_budget"`
	HasMonitoringSystem         bool `json:"has_monitoring_system"`
}

type StudentEngagement struct {
	// StudentDigitalLiteracyRate is a percentage in [0, 100].
	StudentDigitalLiteracyRate float64 `json:"student_digital_literacy_rate" validate:"min=0,max=100"`
	HasICTClub                 bool    `json:"has_ict_club"`
	WeeklyComputerHours        float64 `json:"weekly_computer_hours" validate:"min=0"`
}

type CommunityEngagement struct {
	HasParentInvolvement bool     `json:"has_parent_involvement"`
	HasIndustryPartners  bool     `json:"has_industry_partners"`
	PartnerOrganizations []string `json:"partner_organizations" validate:"max=50,dive,max=200"`
	CommunityUsage       string   `json:"community_usage" validate:"max=500"`
}

type Security struct {
	HasUsagePolicy      bool `json:"has_usage_policy"`
	HasContentFiltering bool `json:"has_content_filtering"`
	HasDataProtection   bool `json:"has_data_protection"`
}

type Accessibility struct {
	IsInclusive           bool     `json:"is_inclusive"`
	ServesPWDs            bool     `json:"serves_pwds"`
	ServesGirls           bool     `json:"serves_girls"`
	AssistiveTechnologies []string `json:"assistive_technologies" validate:"max=20,dive,max=100"`
}

type EnvironmentPractice struct {
	GreenPractices   []string `json:"green_practices" validate:"max=20,dive,max=200"`
	EWasteManagement string   `json:"e_waste_management" validate:"max=500"`
}

type Performance struct {
	AverageExamScore   float64 `json:"average_exam_score" validate:"min=0,max=100"`
	ICTSubjectPassRate float64 `json:"ict_subject_pass_rate" validate:"min=0,max=100"`
}

// SchoolFilter narrows ListSchools results.
type SchoolFilter struct {
	District    string
	Environment Environment
	Search      string // case-insensitive substring of the school name
}
