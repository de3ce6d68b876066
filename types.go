package manabi

import (
	"time"

	"github.com/google/uuid"
)

// Role is an account access role. Values match the server's roles.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleFieldOfficer Role = "field_officer"
	RoleViewer       Role = "viewer"
)

// ThemeScore is one policy theme's score in a MaturityChange.
type ThemeScore struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Stage string `json:"stage"`
}

// MaturityChange describes a school's recomputed policy maturity after a
// profile or report mutation.
type MaturityChange struct {
	SchoolID         uuid.UUID    `json:"school_id"`
	Name             string       `json:"name"`
	District         string       `json:"district"`
	OverallScore     int          `json:"overall_score"`
	OverallStage     string       `json:"overall_stage"`
	ReadinessLevel   string       `json:"readiness_level"`
	Themes           []ThemeScore `json:"themes"`
	DataCompleteness int          `json:"data_completeness"`
	CalculatedAt     time.Time    `json:"calculated_at"`
}
