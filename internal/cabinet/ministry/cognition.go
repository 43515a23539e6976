package ministry

import (
	"fmt"

	"daycourt/internal/cabinet/heuristic"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// Cognition evaluates mental load: how much of the weekly focus budget the
// action consumes and how badly it fragments attention across open projects.
type Cognition struct {
	Caps config.Capacities
}

func (m Cognition) ID() string { return "cognition" }

func (m Cognition) weeklyFocusHours() float64 {
	return m.Caps.FocusHoursPerDay * 7
}

func (m Cognition) CurrentState() map[string]any {
	return map[string]any{
		"focus_hours_per_day": m.Caps.FocusHoursPerDay,
		"open_projects":       m.Caps.OpenProjects,
	}
}

func (m Cognition) HealthMetrics() map[string]float64 {
	wipPressure := 100.0
	if m.Caps.MaxOpenProjects > 0 {
		wipPressure = heuristic.Clamp(100-float64(m.Caps.OpenProjects)/float64(m.Caps.MaxOpenProjects)*100, 0, 100)
	}
	return map[string]float64{
		"cognitive_load":    wipPressure,
		"focus_capacity":    heuristic.Clamp(m.Caps.FocusHoursPerDay/6*100, 0, 100),
		"context_switching": heuristic.Clamp(100-float64(m.Caps.OpenProjects)*20, 0, 100),
	}
}

func (m Cognition) RespondToDirective(d domain.Directive) (domain.MinistryReport, error) {
	action := heuristic.Normalize(d.Action)
	cost := heuristic.EstimateCost(action)

	focusRatio := heuristic.RatioPercent(cost.Hours, m.weeklyFocusHours())
	tier := heuristic.TierFor(focusRatio)

	switchPenalty := heuristic.Clamp(100-float64(m.Caps.OpenProjects)*15, 0, 100)
	score := heuristic.WeightedScore(
		heuristic.Part{Weight: 0.55, Score: heuristic.TierScore(tier)},
		heuristic.Part{Weight: 0.25, Score: switchPenalty},
		heuristic.Part{Weight: 0.20, Score: heuristic.ReversibilityScore(action)},
	)

	var proposals, warnings []string
	proposals = append(proposals, fmt.Sprintf("reserve a single deep block for %q rather than fragments", d.Action))
	if cost.Class == "deep" {
		proposals = append(proposals, "close open loops first: write down everything else before starting")
	}
	if tier == heuristic.TierHigh || tier == heuristic.TierProhibited {
		warnings = append(warnings, fmt.Sprintf("focus demand at %.0f%% of the weekly deep-work budget (%s tier)", focusRatio, tier))
	}
	if m.Caps.MaxOpenProjects > 0 && m.Caps.OpenProjects >= m.Caps.MaxOpenProjects {
		warnings = append(warnings, "work-in-progress limit reached; finishing beats starting")
	}

	return report(m.ID(), m.CurrentState(), domain.DirectiveResponse{
		Score:     score,
		Category:  string(tier),
		Proposals: proposals,
		Warnings:  warnings,
	}, m.HealthMetrics()), nil
}
