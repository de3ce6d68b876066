package maturity

import "github.com/ashita-ai/manabi/internal/model"

// Stage thresholds are inclusive lower bounds.
const (
	advancedThreshold    = 87.5
	establishedThreshold = 62.5
	emergingThreshold    = 37.5

	highReadinessThreshold   = 70
	mediumReadinessThreshold = 40
)

// DetermineProgressStage maps any score to its progress stage.
func DetermineProgressStage(score float64) model.ProgressStage {
	switch {
	case score >= advancedThreshold:
		return model.StageAdvanced
	case score >= establishedThreshold:
		return model.StageEstablished
	case score >= emergingThreshold:
		return model.StageEmerging
	default:
		return model.StageLatent
	}
}

// DetermineICTReadinessLevel maps any score to its readiness level.
func DetermineICTReadinessLevel(score float64) model.ICTReadinessLevel {
	switch {
	case score >= highReadinessThreshold:
		return model.ReadinessHigh
	case score >= mediumReadinessThreshold:
		return model.ReadinessMedium
	default:
		return model.ReadinessLow
	}
}
