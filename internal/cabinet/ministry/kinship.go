package ministry

import (
	"fmt"

	"daycourt/internal/cabinet/heuristic"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// Kinship evaluates relational presence: whether the directive feeds shared
// life or quietly consumes the hours reserved for it.
type Kinship struct {
	Caps config.Capacities
}

func (m Kinship) ID() string { return "kinship" }

func (m Kinship) CurrentState() map[string]any {
	return map[string]any{
		"social_hours_per_week": m.Caps.SocialHoursWeek,
	}
}

func (m Kinship) HealthMetrics() map[string]float64 {
	return map[string]float64{
		"presence":     heuristic.Clamp(m.Caps.SocialHoursWeek/14*100, 0, 100),
		"shared_meals": heuristic.Clamp(m.Caps.SocialHoursWeek/10*100, 0, 100),
		"reachability": 80,
	}
}

var relationalWords = []string{"family", "visit", "call", "dinner", "friend", "together", "kids", "partner"}

func (m Kinship) RespondToDirective(d domain.Directive) (domain.MinistryReport, error) {
	action := heuristic.Normalize(d.Action)
	cost := heuristic.EstimateCost(action)

	// Hours a directive claims come out of the same week that holds the
	// relational budget; heavy actions press on presence even when they are
	// not social at all.
	presenceRatio := heuristic.RatioPercent(cost.Hours, m.Caps.WeeklyHours-m.Caps.SocialHoursWeek)
	tier := heuristic.TierFor(presenceRatio)

	relational := 55.0
	for _, w := range relationalWords {
		if containsWord(action, w) {
			relational = 95
			break
		}
	}

	score := heuristic.WeightedScore(
		heuristic.Part{Weight: 0.5, Score: heuristic.TierScore(tier)},
		heuristic.Part{Weight: 0.35, Score: relational},
		heuristic.Part{Weight: 0.15, Score: heuristic.InvestmentScore(action)},
	)

	var proposals, warnings []string
	if relational >= 90 {
		proposals = append(proposals, fmt.Sprintf("protect %q from interruptions; put the phone away", d.Action))
	} else {
		proposals = append(proposals, "name one person who benefits from this directive and tell them about it")
	}
	if tier == heuristic.TierHigh || tier == heuristic.TierProhibited {
		warnings = append(warnings, fmt.Sprintf("the action would absorb %.0f%% of non-social hours and press on presence (%s tier)", presenceRatio, tier))
	}

	return report(m.ID(), m.CurrentState(), domain.DirectiveResponse{
		Score:     score,
		Category:  string(tier),
		Proposals: proposals,
		Warnings:  warnings,
	}, m.HealthMetrics()), nil
}
