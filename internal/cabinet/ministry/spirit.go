package ministry

import (
	"fmt"

	"daycourt/internal/cabinet/heuristic"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// Spirit evaluates alignment: does the directive fit the current life-season
// and is it recoverable if it turns out to be the wrong call.
type Spirit struct {
	Caps   config.Capacities
	Period string
}

func (m Spirit) ID() string { return "spirit" }

func (m Spirit) CurrentState() map[string]any {
	return map[string]any{
		"period": m.Period,
	}
}

func (m Spirit) HealthMetrics() map[string]float64 {
	return map[string]float64{
		"alignment":  78,
		"observance": 82,
		"stillness":  heuristic.Clamp(100-float64(m.Caps.OpenProjects)*12, 0, 100),
	}
}

func (m Spirit) RespondToDirective(d domain.Directive) (domain.MinistryReport, error) {
	action := heuristic.Normalize(d.Action)
	cost := heuristic.EstimateCost(action)

	// Spirit's capacity ratio reads the energy cost against a fixed
	// contemplative budget: heavy actions leave no room for stillness.
	stillnessRatio := heuristic.RatioPercent(cost.EnergyPercent, 120)
	tier := heuristic.TierFor(stillnessRatio)

	period := m.Period
	if d.Period != "" {
		period = d.Period
	}

	score := heuristic.WeightedScore(
		heuristic.Part{Weight: 0.4, Score: heuristic.SeasonScore(period, action)},
		heuristic.Part{Weight: 0.35, Score: heuristic.ReversibilityScore(action)},
		heuristic.Part{Weight: 0.25, Score: heuristic.TierScore(tier)},
	)

	var proposals, warnings []string
	proposals = append(proposals, fmt.Sprintf("open and close %q with the %s observances; the action serves the day, not the reverse", d.Action, period))
	if heuristic.ReversibilityScore(action) < 50 {
		warnings = append(warnings, "the action looks hard to undo; sleep on it once before executing")
	}
	if heuristic.SeasonScore(period, action) < 70 {
		proposals = append(proposals, fmt.Sprintf("consider whether this belongs in %s or in a later season", period))
	}

	return report(m.ID(), m.CurrentState(), domain.DirectiveResponse{
		Score:     score,
		Category:  string(tier),
		Proposals: proposals,
		Warnings:  warnings,
	}, m.HealthMetrics()), nil
}
