package heuristic

import (
	"math"
	"testing"
)

func TestEstimateCostBuckets(t *testing.T) {
	cases := []struct {
		action string
		class  string
		hours  float64
		energy float64
	}{
		{"build a deck", "deep", 20, 80},
		{"write the quarterly letter", "deep", 20, 80},
		{"plan the week", "moderate", 8, 50},
		{"review invoices", "light", 2, 25},
		{"contemplate existence", "moderate", 8, 50}, // no verb match
		{"BUILD something big", "deep", 20, 80},      // case-insensitive
	}
	for _, c := range cases {
		got := EstimateCost(c.action)
		if got.Class != c.class || got.Hours != c.hours || got.EnergyPercent != c.energy {
			t.Errorf("EstimateCost(%q) = %+v", c.action, got)
		}
	}
}

func TestEstimateCostWholeWordsOnly(t *testing.T) {
	// "rebuild" must not match the "build" verb
	if got := EstimateCost("rebuild trust slowly"); got.Class != "moderate" {
		t.Errorf("substring matched: %+v", got)
	}
}

func TestEstimateSpend(t *testing.T) {
	cases := []struct {
		action string
		want   float64
	}{
		{"buy a new laptop", 500},
		{"subscribe to the journal", 100},
		{"order groceries", 20},
		{"walk in the park", 0},
	}
	for _, c := range cases {
		if got := EstimateSpend(c.action); got != c.want {
			t.Errorf("EstimateSpend(%q) = %f, want %f", c.action, got, c.want)
		}
	}
}

func TestTierBoundariesAreStrict(t *testing.T) {
	cases := []struct {
		ratio float64
		want  Tier
	}{
		{0, TierLow},
		{32.9, TierLow},
		{33, TierModerate},
		{49.9, TierModerate},
		{50, TierHigh},
		{79.9, TierHigh},
		{80, TierProhibited},
		{200, TierProhibited},
	}
	for _, c := range cases {
		if got := TierFor(c.ratio); got != c.want {
			t.Errorf("TierFor(%f) = %s, want %s", c.ratio, got, c.want)
		}
	}
}

func TestRatioPercent(t *testing.T) {
	// a 20h deep action against a 44h week sits in the moderate band
	if got := RatioPercent(20, 44); got < 33 || got >= 50 {
		t.Errorf("20/44 ratio = %f, expected moderate band", got)
	}
	if got := RatioPercent(10, 0); got != 100 {
		t.Errorf("missing capacity must read as consumed, got %f", got)
	}
	if got := RatioPercent(10, -5); got != 100 {
		t.Errorf("negative capacity must read as consumed, got %f", got)
	}
}

func TestWeightedScore(t *testing.T) {
	got := WeightedScore(
		Part{Weight: 0.5, Score: 80},
		Part{Weight: 0.3, Score: 60},
		Part{Weight: 0.2, Score: 100},
	)
	if math.Abs(got-78) > 1e-9 {
		t.Errorf("weighted score = %f, want 78", got)
	}
	if got := WeightedScore(Part{Weight: 2, Score: 100}); got != 100 {
		t.Errorf("score must clamp at 100, got %f", got)
	}
}

func TestInvestmentScore(t *testing.T) {
	if got := InvestmentScore("learn woodworking"); got != 90 {
		t.Errorf("investment = %f", got)
	}
	if got := InvestmentScore("buy a new chair"); got != 35 {
		t.Errorf("expense = %f", got)
	}
	if got := InvestmentScore("walk the dog"); got != 60 {
		t.Errorf("neutral = %f", got)
	}
}

func TestReversibilityScore(t *testing.T) {
	if got := ReversibilityScore("quit the job"); got != 30 {
		t.Errorf("irreversible = %f", got)
	}
	if got := ReversibilityScore("sketch some options"); got != 85 {
		t.Errorf("reversible = %f", got)
	}
}

func TestSeasonScore(t *testing.T) {
	if got := SeasonScore("advent", "prepare the workshop"); got != 90 {
		t.Errorf("aligned = %f", got)
	}
	if got := SeasonScore("advent", "launch the product"); got != 60 {
		t.Errorf("unaligned = %f", got)
	}
	if got := SeasonScore("unknown", "prepare the workshop"); got != 60 {
		t.Errorf("unknown period = %f", got)
	}
}
