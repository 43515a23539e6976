package ministry

import (
	"fmt"

	"daycourt/internal/cabinet/heuristic"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// Works evaluates craft throughput: whether the directive starts yet another
// project or moves an open one toward done.
type Works struct {
	Caps config.Capacities
}

func (m Works) ID() string { return "works" }

func (m Works) CurrentState() map[string]any {
	return map[string]any{
		"open_projects":     m.Caps.OpenProjects,
		"max_open_projects": m.Caps.MaxOpenProjects,
	}
}

func (m Works) HealthMetrics() map[string]float64 {
	wip := 100.0
	if m.Caps.MaxOpenProjects > 0 {
		wip = heuristic.Clamp(100-float64(m.Caps.OpenProjects)/float64(m.Caps.MaxOpenProjects)*100, 0, 100)
	}
	return map[string]float64{
		"wip_headroom":   wip,
		"finish_rate":    70,
		"craft_practice": heuristic.Clamp(m.Caps.FocusHoursPerDay/4*100, 0, 100),
	}
}

func (m Works) RespondToDirective(d domain.Directive) (domain.MinistryReport, error) {
	action := heuristic.Normalize(d.Action)
	cost := heuristic.EstimateCost(action)

	// A deep action counts as opening one more project slot.
	projected := float64(m.Caps.OpenProjects)
	if cost.Class == "deep" {
		projected++
	}
	maxProjects := float64(m.Caps.MaxOpenProjects)
	wipRatio := heuristic.RatioPercent(projected, maxProjects)
	tier := heuristic.TierFor(wipRatio)

	score := heuristic.WeightedScore(
		heuristic.Part{Weight: 0.5, Score: heuristic.TierScore(tier)},
		heuristic.Part{Weight: 0.3, Score: heuristic.InvestmentScore(action)},
		heuristic.Part{Weight: 0.2, Score: heuristic.TierScore(heuristic.TierFor(heuristic.RatioPercent(cost.Hours, m.Caps.WeeklyHours)))},
	)

	var proposals, warnings []string
	if cost.Class == "deep" {
		proposals = append(proposals, fmt.Sprintf("define done for %q before starting; one shippable slice this week", d.Action))
	} else {
		proposals = append(proposals, fmt.Sprintf("attach %q to an open project so it compounds", d.Action))
	}
	if tier == heuristic.TierHigh || tier == heuristic.TierProhibited {
		warnings = append(warnings, fmt.Sprintf("projected work-in-progress at %.0f%% of the limit (%s tier)", wipRatio, tier))
		proposals = append(proposals, "close or park one open project before taking this on")
	}

	return report(m.ID(), m.CurrentState(), domain.DirectiveResponse{
		Score:     score,
		Category:  string(tier),
		Proposals: proposals,
		Warnings:  warnings,
	}, m.HealthMetrics()), nil
}
