package ministry

import (
	"fmt"

	"daycourt/internal/cabinet/heuristic"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// Treasury evaluates a directive against capital capacity: available weekly
// hours (time is the primary currency) and the monthly discretionary budget.
type Treasury struct {
	Caps config.Capacities
}

func (m Treasury) ID() string { return "treasury" }

func (m Treasury) CurrentState() map[string]any {
	return map[string]any{
		"weekly_hours":   m.Caps.WeeklyHours,
		"monthly_budget": m.Caps.MonthlyBudget,
		"runway_months":  m.Caps.RunwayMonths,
	}
}

func (m Treasury) HealthMetrics() map[string]float64 {
	return map[string]float64{
		"runway_health":   heuristic.Clamp(m.Caps.RunwayMonths/12*100, 0, 100),
		"budget_headroom": heuristic.Clamp(m.Caps.MonthlyBudget/40, 0, 100),
		"time_solvency":   heuristic.Clamp(m.Caps.WeeklyHours/60*100, 0, 100),
	}
}

func (m Treasury) RespondToDirective(d domain.Directive) (domain.MinistryReport, error) {
	action := heuristic.Normalize(d.Action)
	cost := heuristic.EstimateCost(action)
	spend := heuristic.EstimateSpend(action)

	timeRatio := heuristic.RatioPercent(cost.Hours, m.Caps.WeeklyHours)
	budgetRatio := heuristic.RatioPercent(spend, m.Caps.MonthlyBudget)
	maxRatio := timeRatio
	if budgetRatio > maxRatio {
		maxRatio = budgetRatio
	}
	tier := heuristic.TierFor(maxRatio)

	runwayScore := heuristic.Clamp(m.Caps.RunwayMonths/6*100, 0, 100)
	score := heuristic.WeightedScore(
		heuristic.Part{Weight: 0.5, Score: heuristic.TierScore(tier)},
		heuristic.Part{Weight: 0.3, Score: heuristic.InvestmentScore(action)},
		heuristic.Part{Weight: 0.2, Score: runwayScore},
	)

	var proposals, warnings []string
	proposals = append(proposals, fmt.Sprintf("budget %.0fh of capital time for %q (%s load)", cost.Hours, d.Action, cost.Class))
	if spend > 0 {
		proposals = append(proposals, fmt.Sprintf("earmark ~%.0f from the monthly budget before starting", spend))
	}
	if tier == heuristic.TierHigh || tier == heuristic.TierProhibited {
		warnings = append(warnings, fmt.Sprintf("capital demand at %.0f%% of weekly capacity (%s tier)", maxRatio, tier))
	}
	if m.Caps.RunwayMonths < 3 {
		warnings = append(warnings, "runway below three months; favor income-preserving actions")
	}

	return report(m.ID(), m.CurrentState(), domain.DirectiveResponse{
		Score:     score,
		Category:  string(tier),
		Proposals: proposals,
		Warnings:  warnings,
	}, m.HealthMetrics()), nil
}
