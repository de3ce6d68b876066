package maturity

import "github.com/ashita-ai/manabi/internal/model"

var (
	distanceEducation = indicator{
		key: "distance_education", name: "Distance Education",
		rungs: []rung{
			{func(p profile) bool { return p.pedagogy.UsesBlendedLearning }, 75},
		},
		otherwise: 25,
	}
	mobiles = indicator{
		key: "mobiles", name: "Mobile Learning",
		rungs: []rung{
			{func(p profile) bool { return p.pedagogy.DigitalToolUsageFrequency == model.UsageDaily }, 75},
			{func(p profile) bool { return p.pedagogy.DigitalToolUsageFrequency == model.UsageWeekly }, 50},
		},
		otherwise: 25,
	}
	// Primary schools carry no early-childhood data; the indicator is fixed.
	earlyChildhood = indicator{
		key: "early_childhood", name: "Early Childhood",
		otherwise: 50,
	}
	openEducationalResources = indicator{
		key: "open_educational_resources", name: "Open Educational Resources",
		rungs: []rung{
			{func(p profile) bool { return p.software.HasLocalContent }, 75},
		},
		otherwise: 25,
	}
	communityInvolvement = indicator{
		key: "community_involvement", name: "Community Involvement",
		rungs: []rung{
			{func(p profile) bool { return p.community.HasParentInvolvement }, 75},
		},
		otherwise: 25,
	}
	dataPrivacy = indicator{
		key: "data_privacy", name: "Data Privacy",
		rungs: []rung{
			{func(p profile) bool { return p.security.HasDataProtection }, 75},
		},
		otherwise: 25,
	}
)

func staged(in indicator, p profile) model.StagedScore {
	s := in.score(p)
	return model.StagedScore{Score: s, Stage: DetermineProgressStage(float64(s))}
}

// CalculateCrossCuttingThemes scores the six informational indicators. They
// never contribute to the overall maturity score.
func CalculateCrossCuttingThemes(school model.School, latest *model.ICTReport) model.CrossCuttingThemes {
	p := newProfile(school, latest)
	return model.CrossCuttingThemes{
		DistanceEducation:        staged(distanceEducation, p),
		Mobiles:                  staged(mobiles, p),
		EarlyChildhood:           staged(earlyChildhood, p),
		OpenEducationalResources: staged(openEducationalResources, p),
		CommunityInvolvement:     staged(communityInvolvement, p),
		DataPrivacy:              staged(dataPrivacy, p),
	}
}
