package ministry

import (
	"context"
	"testing"

	"daycourt/internal/cabinet"
	"daycourt/internal/config"
	"daycourt/internal/domain"
)

func testCaps() config.Capacities {
	return config.Default("court-1").Capacities
}

func TestAllSevenMinistries(t *testing.T) {
	bench := All(testCaps(), "ordinary")
	want := []string{"treasury", "vitality", "cognition", "chronos", "kinship", "spirit", "works"}
	if len(bench) != len(want) {
		t.Fatalf("bench size = %d", len(bench))
	}
	for _, id := range want {
		m, ok := bench[id]
		if !ok {
			t.Fatalf("missing ministry %s", id)
		}
		if m.ID() != id {
			t.Fatalf("ministry %s reports id %s", id, m.ID())
		}
	}
}

func TestEveryMinistryProducesABoundedScore(t *testing.T) {
	d := domain.Directive{Date: "2026-03-02", Period: "ordinary", Action: "build a garden shed"}
	for id, m := range All(testCaps(), "ordinary") {
		rep, err := m.RespondToDirective(d)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if rep.Response.Score < 0 || rep.Response.Score > 100 {
			t.Errorf("%s score out of range: %f", id, rep.Response.Score)
		}
		switch rep.Response.Category {
		case "low", "moderate", "high", "prohibited":
		default:
			t.Errorf("%s category %q", id, rep.Response.Category)
		}
		if len(rep.Response.Proposals) == 0 {
			t.Errorf("%s produced no proposals", id)
		}
		if len(rep.Health) == 0 {
			t.Errorf("%s produced no health metrics", id)
		}
		for name, v := range rep.Health {
			if v < 0 || v > 100 {
				t.Errorf("%s health %s out of range: %f", id, name, v)
			}
		}
	}
}

func TestTreasuryTiersByDemand(t *testing.T) {
	m := Treasury{Caps: testCaps()}
	// deep verb: 20h of a 44h week sits in the moderate band
	rep, err := m.RespondToDirective(domain.Directive{Action: "build a garden shed"})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Response.Category != "moderate" {
		t.Fatalf("deep action category = %s", rep.Response.Category)
	}
	// light verb: 2h of 44h is low
	rep, _ = m.RespondToDirective(domain.Directive{Action: "review the bills"})
	if rep.Response.Category != "low" {
		t.Fatalf("light action category = %s", rep.Response.Category)
	}
}

func TestTreasuryBudgetDominatesWhenLarger(t *testing.T) {
	caps := testCaps()
	caps.MonthlyBudget = 600 // a 500 purchase is 83% of budget
	m := Treasury{Caps: caps}
	rep, err := m.RespondToDirective(domain.Directive{Action: "buy a table saw"})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Response.Category != "prohibited" {
		t.Fatalf("category = %s, want prohibited", rep.Response.Category)
	}
	if len(rep.Response.Warnings) == 0 {
		t.Fatalf("expected a capacity warning")
	}
}

func TestTreasuryLowRunwayWarning(t *testing.T) {
	caps := testCaps()
	caps.RunwayMonths = 2
	m := Treasury{Caps: caps}
	rep, _ := m.RespondToDirective(domain.Directive{Action: "review the bills"})
	found := false
	for _, w := range rep.Response.Warnings {
		if w == "runway below three months; favor income-preserving actions" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing runway warning: %v", rep.Response.Warnings)
	}
}

func TestVitalityFavorsRestorativeActions(t *testing.T) {
	m := Vitality{Caps: testCaps()}
	restorative, _ := m.RespondToDirective(domain.Directive{Action: "run by the river"})
	depleting, _ := m.RespondToDirective(domain.Directive{Action: "draft the annual report"})
	if restorative.Response.Score <= depleting.Response.Score {
		t.Fatalf("restorative %.0f should outscore depleting %.0f",
			restorative.Response.Score, depleting.Response.Score)
	}
}

func TestVitalityFlagsHighEnergyBurn(t *testing.T) {
	caps := testCaps()
	caps.DailyEnergy = 90 // deep 80% burn of 90 energy is 88.9%, prohibited
	m := Vitality{Caps: caps}
	rep, _ := m.RespondToDirective(domain.Directive{Action: "build the workshop bench"})
	if rep.Response.Category != "prohibited" {
		t.Fatalf("category = %s", rep.Response.Category)
	}
	if len(rep.Response.Warnings) == 0 {
		t.Fatalf("expected energy warning")
	}
}

func TestSpiritSeasonAlignment(t *testing.T) {
	caps := testCaps()
	aligned, _ := Spirit{Caps: caps, Period: "advent"}.RespondToDirective(domain.Directive{Action: "simplify the study"})
	unaligned, _ := Spirit{Caps: caps, Period: "advent"}.RespondToDirective(domain.Directive{Action: "launch the side project"})
	if aligned.Response.Score <= unaligned.Response.Score {
		t.Fatalf("season-aligned %.0f should outscore unaligned %.0f",
			aligned.Response.Score, unaligned.Response.Score)
	}
}

func TestWorksFlagsProjectOverload(t *testing.T) {
	caps := testCaps()
	caps.OpenProjects = 3
	caps.MaxOpenProjects = 3
	m := Works{Caps: caps}
	rep, _ := m.RespondToDirective(domain.Directive{Action: "create a new newsletter"})
	if rep.Response.Category != "prohibited" && rep.Response.Category != "high" {
		t.Fatalf("category = %s with a full project slate", rep.Response.Category)
	}
}

func TestRegisterAllOnCabinet(t *testing.T) {
	c := cabinet.New()
	if err := RegisterAll(c, testCaps(), "ordinary"); err != nil {
		t.Fatalf("register all: %v", err)
	}
	report := c.Consult(context.Background(), domain.Directive{Date: "2026-03-02", Period: "ordinary", Action: "tidy the workbench"})
	if report.ActiveMinistries != 7 {
		t.Fatalf("active = %d", report.ActiveMinistries)
	}
	if report.GlobalCoherence <= 0 || report.GlobalCoherence > 100 {
		t.Fatalf("coherence = %f", report.GlobalCoherence)
	}
}
