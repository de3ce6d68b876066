package maturity

import (
	"math"

	"github.com/ashita-ai/manabi/internal/model"
)

// rung maps a predicate over a profile to a fixed score.
type rung struct {
	when  func(p profile) bool
	score int
}

// indicator is one sub-indicator: an ordered rule table evaluated top to
// bottom. The first matching rung wins; otherwise applies when none match,
// including when the data the rungs read is absent.
type indicator struct {
	key       string
	name      string
	rungs     []rung
	otherwise int
}

func (in indicator) score(p profile) int {
	for _, r := range in.rungs {
		if r.when(p) {
			return r.score
		}
	}
	return in.otherwise
}

// theme is a policy theme whose score is the rounded mean of its indicators.
type theme struct {
	code       string
	name       string
	indicators []indicator
}

func (t theme) score(p profile) model.PolicyThemeScore {
	subs := make(map[string]model.SubScore, len(t.indicators))
	sum := 0
	for _, in := range t.indicators {
		s := in.score(p)
		sum += s
		subs[in.key] = model.SubScore{
			Name:  in.name,
			Score: s,
			Stage: DetermineProgressStage(float64(s)),
		}
	}
	score := roundMean(sum, len(t.indicators))
	return model.PolicyThemeScore{
		Code:      t.code,
		Name:      t.name,
		Score:     score,
		Stage:     DetermineProgressStage(float64(score)),
		SubScores: subs,
	}
}

// roundMean is round(sum/n) with half away from zero, or 0 when n is 0.
func roundMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// percent returns num as a percentage of den, or 0 when the denominator is
// zero or negative.
func percent(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) * 100 / float64(den)
}

// atLeast builds a rung that fires when metric(p) >= floor.
func atLeast(metric func(p profile) float64, floor float64, score int) rung {
	return rung{when: func(p profile) bool { return metric(p) >= floor }, score: score}
}
