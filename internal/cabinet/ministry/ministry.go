// Package ministry provides the seven concrete cabinet evaluators. Each one
// scores a directive against its own domain heuristics and is independent of
// the others.
package ministry

import (
	"strings"

	"daycourt/internal/cabinet"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// All returns the full bench of ministries for a court's capacities and
// current day-period.
func All(caps config.Capacities, period string) map[string]cabinet.Ministry {
	return map[string]cabinet.Ministry{
		"treasury":  Treasury{Caps: caps},
		"vitality":  Vitality{Caps: caps},
		"cognition": Cognition{Caps: caps},
		"chronos":   Chronos{Caps: caps},
		"kinship":   Kinship{Caps: caps},
		"spirit":    Spirit{Caps: caps, Period: period},
		"works":     Works{Caps: caps},
	}
}

// RegisterAll registers the full bench on a cabinet.
func RegisterAll(c *cabinet.Cabinet, caps config.Capacities, period string) error {
	for id, m := range All(caps, period) {
		if err := c.Register(id, m); err != nil {
			return err
		}
	}
	return nil
}

func containsWord(text, word string) bool {
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if strings.Trim(tok, ",.;:") == word {
			return true
		}
	}
	return false
}

func report(id string, state map[string]any, resp domain.DirectiveResponse, health map[string]float64) domain.MinistryReport {
	return domain.MinistryReport{
		MinistryID: id,
		State:      state,
		Response:   resp,
		Health:     health,
	}
}
