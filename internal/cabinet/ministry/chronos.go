package ministry

import (
	"fmt"

	"daycourt/internal/cabinet/heuristic"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// Chronos evaluates calendar pressure: whether the directive fits inside the
// week's committed hours without eroding the free margin.
type Chronos struct {
	Caps config.Capacities
}

func (m Chronos) ID() string { return "chronos" }

func (m Chronos) CurrentState() map[string]any {
	return map[string]any{
		"weekly_hours": m.Caps.WeeklyHours,
	}
}

func (m Chronos) HealthMetrics() map[string]float64 {
	return map[string]float64{
		"calendar_margin": heuristic.Clamp((168-m.Caps.WeeklyHours)/168*100, 0, 100),
		"commitment_load": heuristic.Clamp(100-m.Caps.WeeklyHours/60*100+40, 0, 100),
		"rhythm":          75,
	}
}

func (m Chronos) RespondToDirective(d domain.Directive) (domain.MinistryReport, error) {
	action := heuristic.Normalize(d.Action)
	cost := heuristic.EstimateCost(action)

	timeRatio := heuristic.RatioPercent(cost.Hours, m.Caps.WeeklyHours)
	tier := heuristic.TierFor(timeRatio)

	// A deep action that must land in one week crowds out everything else;
	// lighter actions slot around existing commitments.
	slotFit := 85.0
	if cost.Class == "deep" {
		slotFit = 55
	}

	score := heuristic.WeightedScore(
		heuristic.Part{Weight: 0.6, Score: heuristic.TierScore(tier)},
		heuristic.Part{Weight: 0.4, Score: slotFit},
	)

	var proposals, warnings []string
	proposals = append(proposals, fmt.Sprintf("block %.0fh across the week for %q, earliest slots first", cost.Hours, d.Action))
	if tier == heuristic.TierModerate || tier == heuristic.TierHigh {
		proposals = append(proposals, "pre-commit the calendar slots today; unscheduled hours evaporate")
	}
	if tier == heuristic.TierHigh || tier == heuristic.TierProhibited {
		warnings = append(warnings, fmt.Sprintf("time demand at %.0f%% of weekly hours (%s tier)", timeRatio, tier))
	}

	return report(m.ID(), m.CurrentState(), domain.DirectiveResponse{
		Score:     score,
		Category:  string(tier),
		Proposals: proposals,
		Warnings:  warnings,
	}, m.HealthMetrics()), nil
}
