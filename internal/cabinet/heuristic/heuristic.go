// Package heuristic holds the shared scoring primitives every ministry uses:
// keyword-bucket cost estimation, capacity ratios, risk tiers and weighted
// score combination. Keyword tables are package data so they can be tested
// and extended without touching evaluator logic.
package heuristic

import "strings"

// Cost is the estimated resource footprint of a directive action.
type Cost struct {
	Hours         float64
	EnergyPercent float64
	Class         string
}

// Tier is the four-level risk classification of a capacity ratio.
type Tier string

const (
	TierLow        Tier = "low"
	TierModerate   Tier = "moderate"
	TierHigh       Tier = "high"
	TierProhibited Tier = "prohibited"
)

type verbClass struct {
	class  string
	hours  float64
	energy float64
	verbs  []string
}

// Verb buckets ordered from heaviest to lightest; the first match wins.
var verbClasses = []verbClass{
	{"deep", 20, 80, []string{"build", "implement", "create", "launch", "design", "migrate", "develop", "write", "ship"}},
	{"moderate", 8, 50, []string{"plan", "prepare", "organize", "draft", "research", "refactor", "study", "learn"}},
	{"light", 2, 25, []string{"review", "update", "check", "tweak", "email", "call", "read", "tidy", "reply"}},
}

var defaultCost = Cost{Hours: 8, EnergyPercent: 50, Class: "moderate"}

// Spend buckets for money-shaped actions, first match wins.
var spendClasses = []struct {
	class  string
	amount float64
	verbs  []string
}{
	{"major", 500, []string{"buy", "purchase", "hire", "upgrade"}},
	{"recurring", 100, []string{"subscribe", "rent", "enroll"}},
	{"minor", 20, []string{"order", "book", "print"}},
}

// Normalize lowercases and trims an action string for keyword matching.
func Normalize(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}

// EstimateCost maps a normalized action to a duration/energy bucket by verb
// class. Unknown verbs fall into the moderate bucket.
func EstimateCost(action string) Cost {
	text := Normalize(action)
	for _, vc := range verbClasses {
		for _, v := range vc.verbs {
			if containsWord(text, v) {
				return Cost{Hours: vc.hours, EnergyPercent: vc.energy, Class: vc.class}
			}
		}
	}
	return defaultCost
}

// EstimateSpend maps a normalized action to an approximate money outlay.
// Actions with no spend verb cost nothing.
func EstimateSpend(action string) float64 {
	text := Normalize(action)
	for _, sc := range spendClasses {
		for _, v := range sc.verbs {
			if containsWord(text, v) {
				return sc.amount
			}
		}
	}
	return 0
}

// RatioPercent expresses cost over capacity as a percentage. A missing
// capacity is treated as fully consumed.
func RatioPercent(cost, capacity float64) float64 {
	if capacity <= 0 {
		return 100
	}
	return cost / capacity * 100
}

// TierFor maps a ratio percentage to a risk tier. Boundaries are strict:
// exactly 33, 50 or 80 falls on the higher-risk side's lower neighbor per the
// < comparisons.
func TierFor(ratioPercent float64) Tier {
	switch {
	case ratioPercent < 33:
		return TierLow
	case ratioPercent < 50:
		return TierModerate
	case ratioPercent < 80:
		return TierHigh
	default:
		return TierProhibited
	}
}

// TierScore converts a tier to a base 0-100 viability score.
func TierScore(t Tier) float64 {
	switch t {
	case TierLow:
		return 90
	case TierModerate:
		return 70
	case TierHigh:
		return 45
	default:
		return 15
	}
}

// Part is one weighted component of a ministry score.
type Part struct {
	Weight float64
	Score  float64
}

// WeightedScore combines parts whose weights sum to 1.0, clamped to 0..100.
func WeightedScore(parts ...Part) float64 {
	var total float64
	for _, p := range parts {
		total += p.Weight * p.Score
	}
	return Clamp(total, 0, 100)
}

var investmentWords = []string{"learn", "invest", "automate", "repair", "maintain", "train", "teach", "save"}
var expenseWords = []string{"buy", "purchase", "subscribe", "splurge", "order", "upgrade"}

// InvestmentScore rates whether an action is investment-shaped (builds
// capacity) or expense-shaped (consumes it).
func InvestmentScore(action string) float64 {
	text := Normalize(action)
	switch {
	case containsAnyWord(text, investmentWords):
		return 90
	case containsAnyWord(text, expenseWords):
		return 35
	default:
		return 60
	}
}

var irreversibleWords = []string{"quit", "sell", "sign", "commit", "delete", "cancel", "resign", "move"}

// ReversibilityScore rates how recoverable an action is if it turns out wrong.
func ReversibilityScore(action string) float64 {
	if containsAnyWord(Normalize(action), irreversibleWords) {
		return 30
	}
	return 85
}

// Season keyword affinities for period alignment scoring. Each day-period
// favors certain verbs.
var seasonAffinity = map[string][]string{
	"ordinary":  {"build", "maintain", "practice", "work"},
	"advent":    {"prepare", "plan", "wait", "simplify"},
	"christmas": {"celebrate", "visit", "share", "rest"},
	"lent":      {"remove", "fast", "simplify", "give"},
	"easter":    {"launch", "celebrate", "begin", "create"},
}

// SeasonScore rates whether an action fits the current life-season.
func SeasonScore(period, action string) float64 {
	text := Normalize(action)
	if words, ok := seasonAffinity[period]; ok && containsAnyWord(text, words) {
		return 90
	}
	return 60
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func containsWord(text, word string) bool {
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == ';' || r == ':' || r == '-' || r == '/'
	}) {
		if tok == word {
			return true
		}
	}
	return false
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if containsWord(text, w) {
			return true
		}
	}
	return false
}
