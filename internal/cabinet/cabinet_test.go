package cabinet_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"daycourt/internal/cabinet"
	"daycourt/internal/domain"
)

type fakeMinistry struct {
	id     string
	score  float64
	tier   string
	health map[string]float64
	err    error
	panics bool
}

func (f fakeMinistry) ID() string                   { return f.id }
func (f fakeMinistry) CurrentState() map[string]any { return map[string]any{"id": f.id} }
func (f fakeMinistry) HealthMetrics() map[string]float64 {
	return f.health
}
func (f fakeMinistry) RespondToDirective(d domain.Directive) (domain.MinistryReport, error) {
	if f.panics {
		panic("evaluator blew up")
	}
	if f.err != nil {
		return domain.MinistryReport{}, f.err
	}
	return domain.MinistryReport{
		State:    f.CurrentState(),
		Response: domain.DirectiveResponse{Score: f.score, Category: f.tier},
		Health:   f.health,
	}, nil
}

func newCabinet(t *testing.T, ministries ...fakeMinistry) *cabinet.Cabinet {
	t.Helper()
	c := cabinet.New()
	for _, m := range ministries {
		if err := c.Register(m.id, m); err != nil {
			t.Fatalf("register %s: %v", m.id, err)
		}
	}
	return c
}

func TestConsultAggregatesAllMinistries(t *testing.T) {
	c := newCabinet(t,
		fakeMinistry{id: "treasury", score: 80, tier: "low", health: map[string]float64{"a": 100}},
		fakeMinistry{id: "vitality", score: 60, tier: "moderate", health: map[string]float64{"a": 50, "b": 70}},
	)
	report := c.Consult(context.Background(), domain.Directive{Action: "work"})
	if len(report.Reports) != 2 || report.ActiveMinistries != 2 {
		t.Fatalf("unexpected report shape: %+v", report)
	}
	if report.Coordination.Type != "no_conflicts" {
		t.Fatalf("coordination = %s", report.Coordination.Type)
	}
	// mean of health averages: (100 + 60) / 2
	if report.GlobalCoherence != 80 {
		t.Fatalf("coherence = %f", report.GlobalCoherence)
	}
	scores := cabinet.DirectiveScores(report)
	if scores["treasury"] != 80 || scores["vitality"] != 60 {
		t.Fatalf("scores: %v", scores)
	}
}

func TestConsultIsDeterministic(t *testing.T) {
	c := newCabinet(t,
		fakeMinistry{id: "treasury", score: 90, tier: "low", health: map[string]float64{"a": 90}},
		fakeMinistry{id: "vitality", score: 30, tier: "prohibited", health: map[string]float64{"a": 40}},
		fakeMinistry{id: "works", score: 20, tier: "prohibited", health: map[string]float64{"a": 30}},
	)
	first := c.Consult(context.Background(), domain.Directive{Action: "work"})
	for i := 0; i < 10; i++ {
		again := c.Consult(context.Background(), domain.Directive{Action: "work"})
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("consultation %d differed:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestDegradedMinistryIsContained(t *testing.T) {
	c := newCabinet(t,
		fakeMinistry{id: "treasury", score: 70, tier: "low", health: map[string]float64{"a": 80}},
		fakeMinistry{id: "vitality", err: errors.New("state unavailable")},
		fakeMinistry{id: "works", panics: true},
	)
	report := c.Consult(context.Background(), domain.Directive{Action: "work"})
	if len(report.Reports) != 3 {
		t.Fatalf("degraded ministries must still appear: %d", len(report.Reports))
	}
	if report.ActiveMinistries != 1 {
		t.Fatalf("active = %d", report.ActiveMinistries)
	}
	if report.Reports["vitality"].Error == "" || report.Reports["works"].Error == "" {
		t.Fatalf("degraded entries must carry the error")
	}
	// coherence counts only the healthy ministry
	if report.GlobalCoherence != 80 {
		t.Fatalf("coherence = %f", report.GlobalCoherence)
	}
	if _, ok := cabinet.DirectiveScores(report)["works"]; ok {
		t.Fatalf("degraded ministry leaked into scores")
	}
}

func TestScoreDivergenceConflict(t *testing.T) {
	c := newCabinet(t,
		fakeMinistry{id: "treasury", score: 95, tier: "low", health: map[string]float64{"a": 90}},
		fakeMinistry{id: "vitality", score: 20, tier: "high", health: map[string]float64{"a": 40}},
	)
	report := c.Consult(context.Background(), domain.Directive{Action: "work"})
	if len(report.Conflicts) == 0 {
		t.Fatalf("expected divergence conflict")
	}
	if report.Coordination.Type != "arbitration" {
		t.Fatalf("coordination = %s", report.Coordination.Type)
	}
	if len(report.Coordination.Suggestions) == 0 {
		t.Fatalf("arbitration must carry suggestions")
	}
}

func TestMultipleProhibitedConflict(t *testing.T) {
	reports := map[string]domain.MinistryReport{
		"treasury": {Response: domain.DirectiveResponse{Score: 10, Category: "prohibited"}},
		"vitality": {Response: domain.DirectiveResponse{Score: 12, Category: "prohibited"}},
		"spirit":   {Response: domain.DirectiveResponse{Score: 50, Category: "moderate"}},
	}
	got := cabinet.MultipleProhibitedRule(reports)
	if len(got) != 1 {
		t.Fatalf("expected one conflict, got %v", got)
	}
	// a single prohibited ministry is not a conflict
	delete(reports, "vitality")
	if got := cabinet.MultipleProhibitedRule(reports); len(got) != 0 {
		t.Fatalf("single prohibited flagged: %v", got)
	}
}

func TestScoreDivergenceBoundary(t *testing.T) {
	reports := map[string]domain.MinistryReport{
		"a": {Response: domain.DirectiveResponse{Score: 80}},
		"b": {Response: domain.DirectiveResponse{Score: 30}},
	}
	// exactly 50 apart is not a conflict
	if got := cabinet.ScoreDivergenceRule(reports); len(got) != 0 {
		t.Fatalf("boundary divergence flagged: %v", got)
	}
	reports["b"] = domain.MinistryReport{Response: domain.DirectiveResponse{Score: 29}}
	if got := cabinet.ScoreDivergenceRule(reports); len(got) != 1 {
		t.Fatalf("expected divergence conflict, got %v", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	c := cabinet.New()
	if err := c.Register("", fakeMinistry{}); err == nil {
		t.Fatalf("empty id accepted")
	}
	if err := c.Register("treasury", fakeMinistry{id: "treasury"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	// re-registering replaces
	if err := c.Register("treasury", fakeMinistry{id: "treasury", score: 1}); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestConsultWithCancelledContext(t *testing.T) {
	c := newCabinet(t, fakeMinistry{id: "treasury", score: 70, tier: "low", health: map[string]float64{"a": 80}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := c.Consult(ctx, domain.Directive{Action: "work"})
	if report.ActiveMinistries != 0 {
		t.Fatalf("cancelled context should degrade consultations")
	}
}
