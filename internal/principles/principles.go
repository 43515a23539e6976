// Package principles checks a decision descriptor against the court's
// governing principles. The validator is an external collaborator from the
// engine's point of view: issuance annotates its result but never blocks on it.
package principles

import (
	"context"
	"sort"
	"strings"
)

// Result is the outcome of a principle check.
type Result struct {
	Score     float64            `json:"score"`
	Passes    bool               `json:"passes"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// Validator scores a free-text decision descriptor 0-100.
type Validator interface {
	Validate(ctx context.Context, descriptor string) (Result, error)
}

// Weighted is the default local validator. Each catalog principle carries a
// weight; per-principle scores come from keyword signals in the descriptor.
type Weighted struct {
	Catalog   map[string]float64
	PassScore float64
}

type signal struct {
	aligned  []string
	contrary []string
}

// Signals are keyword tables, kept as data so they stay independently
// testable and extensible.
var signals = map[string]signal{
	"presence": {
		aligned:  []string{"family", "together", "walk", "rest", "present", "visit"},
		contrary: []string{"multitask", "scroll", "binge", "rush"},
	},
	"simplicity": {
		aligned:  []string{"remove", "simplify", "cancel", "declutter", "single", "one"},
		contrary: []string{"another", "also", "additionally", "parallel"},
	},
	"stewardship": {
		aligned:  []string{"save", "repair", "maintain", "invest", "learn"},
		contrary: []string{"splurge", "impulse", "gamble"},
	},
	"reversibility": {
		aligned:  []string{"trial", "experiment", "draft", "pilot", "prototype"},
		contrary: []string{"quit", "sell", "sign", "commit", "permanent", "delete"},
	},
	"service": {
		aligned:  []string{"help", "teach", "share", "serve", "volunteer", "contribute"},
		contrary: []string{},
	},
}

const basePrincipleScore = 70

// Validate computes the weighted score. It is pure and never fails; the error
// return exists for the Validator contract.
func (w Weighted) Validate(_ context.Context, descriptor string) (Result, error) {
	text := strings.ToLower(descriptor)
	breakdown := make(map[string]float64, len(w.Catalog))
	var names []string
	for name := range w.Catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	var weightSum, total float64
	for _, name := range names {
		weight := w.Catalog[name]
		score := float64(basePrincipleScore)
		if sig, ok := signals[name]; ok {
			if containsAny(text, sig.aligned) {
				score += 20
			}
			if containsAny(text, sig.contrary) {
				score -= 40
			}
		}
		score = clamp(score, 0, 100)
		breakdown[name] = score
		total += score * weight
		weightSum += weight
	}
	if weightSum == 0 {
		return Result{Score: basePrincipleScore, Passes: basePrincipleScore >= w.passScore(), Breakdown: breakdown}, nil
	}
	score := total / weightSum
	return Result{Score: score, Passes: score >= w.passScore(), Breakdown: breakdown}, nil
}

func (w Weighted) passScore() float64 {
	if w.PassScore == 0 {
		return 60
	}
	return w.PassScore
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
