package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of report observation dates.
const DateLayout = "2006-01-02"

// Date is a calendar date that encodes as YYYY-MM-DD. RFC 3339 timestamps are
// accepted on input and truncated to their UTC date.
type Date struct {
	time.Time
}

// NewDate returns the date for the given calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ConnectionQuality is the observed internet connectivity at a report visit.
type ConnectionQuality string

const (
	ConnectionNone     ConnectionQuality = "None"
	ConnectionSlow     ConnectionQuality = "Slow"
	ConnectionModerate ConnectionQuality = "Moderate"
	ConnectionFast     ConnectionQuality = "Fast"
)

// ICTReport is a dated observation snapshot for one school. Reports never move
// between schools.
type ICTReport struct {
	ID       uuid.UUID `json:"id"`
	SchoolID uuid.UUID `json:"school_id"`
	Date     Date      `json:"date"`
	Period   string    `json:"period" validate:"max=50"`

	Infrastructure Section[ReportInfrastructure] `json:"infrastructure,omitzero"`
	Usage          Section[ReportUsage]          `json:"usage,omitzero"`
	Software       Section[ReportSoftware]       `json:"software,omitzero"`
	Capacity       Section[ReportCapacity]       `json:"capacity,omitzero"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReportInfrastructure struct {
	Computers          int               `json:"computers" validate:"min=0"`
	Tablets            int               `json:"tablets" validate:"min=0"`
	Projectors         int               `json:"projectors" validate:"min=0"`
	Printers           int               `json:"printers" validate:"min=0"`
	FunctionalDevices  int               `json:"functional_devices" validate:"min=0"`
	InternetConnection ConnectionQuality `json:"internet_connection" validate:"omitempty,oneof=None Slow Moderate Fast"`
	InternetSpeedMbps  float64           `json:"internet_speed_mbps" validate:"min=0"`
	PowerSource        string            `json:"power_source" validate:"max=100"`
	PowerBackup        []string          `json:"power_backup" validate:"max=10,dive,max=100"`
}

// TotalDevices is computers + tablets + projectors.
func (r ReportInfrastructure) TotalDevices() int {
	return r.Computers + r.Tablets + r.Projectors
}

type ReportUsage struct {
	TeachersUsingICT int      `json:"teachers_using_ict" validate:"min=0"`
	StudentsUsingICT int      `json:"students_using_ict" validate:"min=0"`
	WeeklyUsageHours float64  `json:"weekly_usage_hours" validate:"min=0,max=168"`
	SubjectsUsingICT []string `json:"subjects_using_ict" validate:"max=30,dive,max=100"`
}

type ReportSoftware struct {
	OperatingSystems    []string `json:"operating_systems" validate:"max=20,dive,max=100"`
	EducationalSoftware []string `json:"educational_software" validate:"max=50,dive,max=200"`
	OfficeApplications  bool     `json:"office_applications"`
}

type ReportCapacity struct {
	ICTTrainedTeachers int `json:"ict_trained_teachers" validate:"min=0"`
	SupportStaff       int `json:"support_staff" validate:"min=0"`
	TotalTeachers      int `json:"total_teachers" validate:"min=0"`
}
