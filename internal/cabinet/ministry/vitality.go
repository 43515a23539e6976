package ministry

import (
	"fmt"

	"daycourt/internal/cabinet/heuristic"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// Vitality evaluates the body's side of a directive: how much of the daily
// energy envelope the action burns and whether it restores or depletes.
type Vitality struct {
	Caps config.Capacities
}

func (m Vitality) ID() string { return "vitality" }

func (m Vitality) CurrentState() map[string]any {
	return map[string]any{
		"daily_energy": m.Caps.DailyEnergy,
	}
}

func (m Vitality) HealthMetrics() map[string]float64 {
	return map[string]float64{
		"energy_reserve": heuristic.Clamp(m.Caps.DailyEnergy, 0, 100),
		"recovery":       heuristic.Clamp(m.Caps.DailyEnergy*0.9, 0, 100),
		"movement":       heuristic.Clamp(float64(100-10*m.Caps.OpenProjects), 0, 100),
	}
}

var restorativeWords = []string{"exercise", "walk", "sleep", "rest", "swim", "run", "stretch", "cook"}

func (m Vitality) RespondToDirective(d domain.Directive) (domain.MinistryReport, error) {
	action := heuristic.Normalize(d.Action)
	cost := heuristic.EstimateCost(action)

	energyRatio := heuristic.RatioPercent(cost.EnergyPercent, m.Caps.DailyEnergy)
	tier := heuristic.TierFor(energyRatio)

	restorative := 50.0
	for _, w := range restorativeWords {
		if containsWord(action, w) {
			restorative = 95
			break
		}
	}

	score := heuristic.WeightedScore(
		heuristic.Part{Weight: 0.6, Score: heuristic.TierScore(tier)},
		heuristic.Part{Weight: 0.4, Score: restorative},
	)

	var proposals, warnings []string
	proposals = append(proposals, fmt.Sprintf("schedule %q inside the morning energy window; expected burn %.0f%%", d.Action, cost.EnergyPercent))
	if tier == heuristic.TierHigh || tier == heuristic.TierProhibited {
		warnings = append(warnings, fmt.Sprintf("energy demand at %.0f%% of the daily envelope (%s tier)", energyRatio, tier))
		proposals = append(proposals, "split the action across two days or pair it with a recovery block")
	}

	return report(m.ID(), m.CurrentState(), domain.DirectiveResponse{
		Score:     score,
		Category:  string(tier),
		Proposals: proposals,
		Warnings:  warnings,
	}, m.HealthMetrics()), nil
}
