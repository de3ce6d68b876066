package maturity

import "github.com/ashita-ai/manabi/internal/model"

var visionPlanning = theme{
	code: model.ThemeVisionPlanning,
	name: "Vision & Planning",
	indicators: []indicator{
		{
			key: "vision", name: "ICT Vision",
			rungs: []rung{
				{func(p profile) bool { return p.gov.HasICTPolicy }, 75},
				{func(p profile) bool { return p.gov.AlignedWithNationalStrategy }, 50},
			},
			otherwise: 25,
		},
		{
			key: "linkages", name: "Policy Linkages",
			rungs: []rung{
				{func(p profile) bool { return p.gov.AlignedWithNationalStrategy }, 75},
				{func(p profile) bool { return p.gov.HasICTCommittee }, 50},
			},
			otherwise: 25,
		},
		{
			key: "funding", name: "Funding",
			rungs: []rung{
				{func(p profile) bool { return p.gov.HasICTBudget }, 75},
				{func(p profile) bool { return p.reportInfra.FunctionalDevices > 10 }, 50},
			},
			otherwise: 25,
		},
		{
			key: "institutions", name: "Institutional Arrangements",
			rungs: []rung{
				{func(p profile) bool { return p.gov.HasICTCommittee }, 75},
				{func(p profile) bool { return p.reportCapacity.SupportStaff > 0 }, 50},
			},
			otherwise: 25,
		},
		{
			key: "partnerships", name: "Partnerships",
			rungs: []rung{
				{func(p profile) bool { return p.community.HasIndustryPartners }, 75},
				{func(p profile) bool { return len(p.community.PartnerOrganizations) > 0 }, 50},
			},
			otherwise: 25,
		},
	},
}

var ictInfrastructure = theme{
	code: model.ThemeICTInfrastructure,
	name: "ICT Infrastructure",
	indicators: []indicator{
		{
			key: "electricity", name: "Electricity",
			rungs: []rung{
				{func(p profile) bool { return p.infra.HasElectricity && len(p.infra.PowerBackup) > 0 }, 100},
				{func(p profile) bool { return p.infra.HasElectricity }, 75},
			},
			otherwise: 25,
		},
		{
			key: "equipment", name: "Equipment",
			rungs: []rung{
				atLeast(profile.totalDevices, 50, 100),
				atLeast(profile.totalDevices, 25, 75),
				atLeast(profile.totalDevices, 10, 50),
			},
			otherwise: 25,
		},
		{
			key: "support", name: "Technical Support",
			rungs: []rung{
				atLeast(profile.supportStaff, 2, 100),
				atLeast(profile.supportStaff, 1, 75),
			},
			otherwise: 25,
		},
	},
}

var teachers = theme{
	code: model.ThemeTeachers,
	name: "Teachers",
	indicators: []indicator{
		{
			key: "training", name: "ICT Training",
			rungs: []rung{
				atLeast(profile.trainedTeacherPercent, 80, 100),
				atLeast(profile.trainedTeacherPercent, 60, 75),
				atLeast(profile.trainedTeacherPercent, 30, 50),
			},
			otherwise: 25,
		},
		{
			key: "competency", name: "Teacher Competency",
			rungs: []rung{
				{func(p profile) bool { return p.capacity.TeacherCompetencyLevel == model.CompetencyAdvanced }, 100},
				{func(p profile) bool { return p.capacity.TeacherCompetencyLevel == model.CompetencyIntermediate }, 75},
				{func(p profile) bool { return p.capacity.TeacherCompetencyLevel == model.CompetencyBasic }, 50},
			},
			otherwise: 25,
		},
		{
			key: "networks", name: "Professional Networks",
			rungs: []rung{
				{func(p profile) bool { return p.capacity.HasCapacityBuilding }, 75},
				{func(p profile) bool { return p.capacity.MonthlyTrainings > 0 }, 50},
			},
			otherwise: 25,
		},
		{
			key: "leadership", name: "ICT Leadership",
			rungs: []rung{
				{func(p profile) bool { return p.gov.HasICTCommittee }, 75},
			},
			otherwise: 50,
		},
	},
}

var skillsCompetencies = theme{
	code: model.ThemeSkillsCompetencies,
	name: "Skills & Competencies",
	indicators: []indicator{
		{
			key: "digital_literacy", name: "Student Digital Literacy",
			rungs: []rung{
				atLeast(profile.digitalLiteracyRate, 80, 100),
				atLeast(profile.digitalLiteracyRate, 60, 75),
				atLeast(profile.digitalLiteracyRate, 30, 50),
			},
			otherwise: 25,
		},
		{
			key: "life_long", name: "Lifelong Learning",
			rungs: []rung{
				{func(p profile) bool { return p.pedagogy.UsesBlendedLearning }, 75},
				{func(p profile) bool { return p.pedagogy.HasDigitalContent }, 50},
			},
			otherwise: 25,
		},
	},
}

var learningResources = theme{
	code: model.ThemeLearningResources,
	name: "Learning Resources",
	indicators: []indicator{
		{
			key: "digital_content", name: "Digital Content",
			rungs: []rung{
				{func(p profile) bool { return p.software.HasDigitalLibrary && p.software.HasLocalContent }, 100},
				{func(p profile) bool { return len(p.software.EducationalSoftware) > 0 }, 75},
				{func(p profile) bool { return p.software.HasDigitalLibrary || p.software.HasLocalContent }, 50},
			},
			otherwise: 25,
		},
	},
}

var emis = theme{
	code: model.ThemeEMIS,
	name: "Education Management Information Systems",
	indicators: []indicator{
		{
			key: "management", name: "Management Systems",
			rungs: []rung{
				{func(p profile) bool { return p.software.HasLMS && p.gov.HasMonitoringSystem }, 100},
				{func(p profile) bool { return p.software.HasLMS || p.gov.HasMonitoringSystem }, 75},
				{func(p profile) bool { return p.pedagogy.UsesICTAssessments }, 50},
			},
			otherwise: 25,
		},
	},
}

var monitoringEvaluation = theme{
	code: model.ThemeMonitoringEvaluation,
	name: "Monitoring & Evaluation",
	indicators: []indicator{
		{
			key: "impact", name: "Impact Monitoring",
			rungs: []rung{
				{func(p profile) bool { return p.gov.HasMonitoringSystem }, 75},
			},
			otherwise: 25,
		},
		{
			key: "assessments", name: "ICT-based Assessments",
			rungs: []rung{
				{func(p profile) bool { return p.pedagogy.UsesICTAssessments }, 75},
			},
			otherwise: 25,
		},
		{
			key: "rd", name: "Research & Innovation",
			rungs: []rung{
				{func(p profile) bool { return p.pedagogy.Innovations != "" }, 75},
			},
			otherwise: 25,
		},
	},
}

var equityInclusionSafety = theme{
	code: model.ThemeEquityInclusionSafety,
	name: "Equity, Inclusion & Safety",
	indicators: []indicator{
		{
			key: "equity", name: "Equity & Inclusion",
			rungs: []rung{
				{func(p profile) bool { return p.access.IsInclusive && p.access.ServesPWDs && p.access.ServesGirls }, 100},
				{func(p profile) bool { return p.access.IsInclusive || p.access.ServesPWDs || p.access.ServesGirls }, 75},
			},
			otherwise: 50,
		},
		{
			key: "safety", name: "Online Safety",
			rungs: []rung{
				{func(p profile) bool { return p.security.HasUsagePolicy }, 75},
			},
			otherwise: 25,
		},
	},
}

// themes lists the eight policy themes in canonical order.
var themes = []theme{
	visionPlanning,
	ictInfrastructure,
	teachers,
	skillsCompetencies,
	learningResources,
	emis,
	monitoringEvaluation,
	equityInclusionSafety,
}

// VisionPlanning scores the Vision & Planning theme.
func VisionPlanning(school model.School, latest *model.ICTReport) model.PolicyThemeScore {
	return visionPlanning.score(newProfile(school, latest))
}

// ICTInfrastructure scores the ICT Infrastructure theme.
func ICTInfrastructure(school model.School, latest *model.ICTReport) model.PolicyThemeScore {
	return ictInfrastructure.score(newProfile(school, latest))
}

// Teachers scores the Teachers theme.
func Teachers(school model.School, latest *model.ICTReport) model.PolicyThemeScore {
	return teachers.score(newProfile(school, latest))
}

// SkillsCompetencies scores the Skills & Competencies theme.
func SkillsCompetencies(school model.School, latest *model.ICTReport) model.PolicyThemeScore {
	return skillsCompetencies.score(newProfile(school, latest))
}

// LearningResources scores the Learning Resources theme.
func LearningResources(school model.School, latest *model.ICTReport) model.PolicyThemeScore {
	return learningResources.score(newProfile(school, latest))
}

// EMIS scores the education management information systems theme.
func EMIS(school model.School, latest *model.ICTReport) model.PolicyThemeScore {
	return emis.score(newProfile(school, latest))
}

// MonitoringEvaluation scores the Monitoring & Evaluation theme.
func MonitoringEvaluation(school model.School, latest *model.ICTReport) model.PolicyThemeScore {
	return monitoringEvaluation.score(newProfile(school, latest))
}

// EquityInclusionSafety scores the Equity, Inclusion & Safety theme.
func EquityInclusionSafety(school model.School, latest *model.ICTReport) model.PolicyThemeScore {
	return equityInclusionSafety.score(newProfile(school, latest))
}
