package maturity

import "github.com/ashita-ai/manabi/internal/model"

// profile is the flattened input every ladder reads. Absent school sections,
// an absent report and absent report sections all resolve to zero values, so
// a ladder never sees missing data, only the lowest-maturity facts.
type profile struct {
	totalTeachers int

	infra     model.SchoolInfrastructure
	software  model.SchoolSoftware
	capacity  model.HumanCapacity
	pedagogy  model.PedagogicalUsage
	gov       model.Governance
	students  model.StudentEngagement
	community model.CommunityEngagement
	security  model.Security
	access    model.Accessibility

	reportInfra    model.ReportInfrastructure
	reportCapacity model.ReportCapacity
}

func newProfile(school model.School, latest *model.ICTReport) profile {
	p := profile{
		totalTeachers: school.TotalTeachers,
		infra:         school.Infrastructure.OrZero(),
		software:      school.Software.OrZero(),
		capacity:      school.HumanCapacity.OrZero(),
		pedagogy:      school.PedagogicalUsage.OrZero(),
		gov:           school.Governance.OrZero(),
		students:      school.StudentEngagement.OrZero(),
		community:     school.CommunityEngagement.OrZero(),
		security:      school.Security.OrZero(),
		access:        school.Accessibility.OrZero(),
	}
	if latest != nil {
		p.reportInfra = latest.Infrastructure.OrZero()
		p.reportCapacity = latest.Capacity.OrZero()
	}
	return p
}

func (p profile) totalDevices() float64 {
	return float64(p.reportInfra.TotalDevices())
}

func (p profile) supportStaff() float64 {
	return float64(p.reportCapacity.SupportStaff)
}

// trainedTeacherPercent is ICT-trained teachers as a percentage of all
// teachers; 0 when the school records no teachers.
func (p profile) trainedTeacherPercent() float64 {
	return percent(p.capacity.ICTTrainedTeachers, p.totalTeachers)
}

func (p profile) digitalLiteracyRate() float64 {
	return p.students.StudentDigitalLiteracyRate
}
