package storage

import (
	"encoding/json"
	"fmt"

	"github.com/ashita-ai/manabi/internal/model"
)

// schoolSections is the JSONB document stored in schools.sections.
// Unrecorded sections are left out of the document.
type schoolSections struct {
	Infrastructure      model.Section[model.SchoolInfrastructure] `json:"infrastructure,omitzero"`
	Internet            model.Section[model.Internet]             `json:"internet,omitzero"`
	Software            model.Section[model.SchoolSoftware]       `json:"software,omitzero"`
	HumanCapacity       model.Section[model.HumanCapacity]        `json:"human_capacity,omitzero"`
	PedagogicalUsage    model.Section[model.PedagogicalUsage]     `json:"pedagogical_usage,omitzero"`
	Governance          model.Section[model.Governance]           `json:"governance,omitzero"`
	StudentEngagement   model.Section[model.StudentEngagement]    `json:"student_engagement,omitzero"`
	CommunityEngagement model.Section[model.CommunityEngagement]  `json:"community_engagement,omitzero"`
	Security            model.Section[model.Security]             `json:"security,omitzero"`
	Accessibility       model.Section[model.Accessibility]        `json:"accessibility,omitzero"`
	EnvironmentPractice model.Section[model.EnvironmentPractice]  `json:"environmental_practice,omitzero"`
	Performance         model.Section[model.Performance]          `json:"performance,omitzero"`
}

func packSchoolSections(s model.School) ([]byte, error) {
	data, err := json.Marshal(schoolSections{
		Infrastructure:      s.Infrastructure,
		Internet:            s.Internet,
		Software:            s.Software,
		HumanCapacity:       s.HumanCapacity,
		PedagogicalUsage:    s.PedagogicalUsage,
		Governance:          s.Governance,
		StudentEngagement:   s.StudentEngagement,
		CommunityEngagement: s.CommunityEngagement,
		Security:            s.Security,
		Accessibility:       s.Accessibility,
		EnvironmentPractice: s.EnvironmentPractice,
		Performance:         s.Performance,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: encode school sections: %w", err)
	}
	return data, nil
}

func unpackSchoolSections(data []byte, s *model.School) error {
	var secs schoolSections
	if len(data) > 0 {
		if err := json.Unmarshal(data, &secs); err != nil {
			return fmt.Errorf("storage: decode school sections: %w", err)
		}
	}
	s.Infrastructure = secs.Infrastructure
	s.Internet = secs.Internet
	s.Software = secs.Software
	s.HumanCapacity = secs.HumanCapacity
	s.PedagogicalUsage = secs.PedagogicalUsage
	s.Governance = secs.Governance
	s.StudentEngagement = secs.StudentEngagement
	s.CommunityEngagement = secs.CommunityEngagement
	s.Security = secs.Security
	s.Accessibility = secs.Accessibility
	s.EnvironmentPractice = secs.EnvironmentPractice
	s.Performance = secs.Performance
	return nil
}

// reportSections is the JSONB document stored in ict_reports.sections.
type reportSections struct {
	Infrastructure model.Section[model.ReportInfrastructure] `json:"infrastructure,omitzero"`
	Usage          model.Section[model.ReportUsage]          `json:"usage,omitzero"`
	Software       model.Section[model.ReportSoftware]       `json:"software,omitzero"`
	Capacity       model.Section[model.ReportCapacity]       `json:"capacity,omitzero"`
}

func packReportSections(r model.ICTReport) ([]byte, error) {
	data, err := json.Marshal(reportSections{
		Infrastructure: r.Infrastructure,
		Usage:          r.Usage,
		Software:       r.Software,
		Capacity:       r.Capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: encode report sections: %w", err)
	}
	return data, nil
}

func unpackReportSections(data []byte, r *model.ICTReport) error {
	var secs reportSections
	if len(data) > 0 {
		if err := json.Unmarshal(data, &secs); err != nil {
			return fmt.Errorf("storage: decode report sections: %w", err)
		}
	}
	r.Infrastructure = secs.Infrastructure
	r.Usage = secs.Usage
	r.Software = secs.Software
	r.Capacity = secs.Capacity
	return nil
}
