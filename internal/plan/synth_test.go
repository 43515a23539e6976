package plan

import (
	"context"
	"testing"
	"time"

	"daycourt/internal/config"
	"daycourt/internal/domain"
	"daycourt/internal/suggest"
	"daycourt/internal/windows"
)

func testSynthesizer(gen suggest.Generator) Synthesizer {
	cfg := config.Default("court-1")
	return Synthesizer{
		Windows: windows.FromConfig(cfg),
		Suggest: gen,
		Config:  cfg,
		Now:     func() time.Time { return time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC) },
	}
}

func testDirective() domain.Directive {
	return domain.Directive{
		ID:     "d-1",
		Date:   "2026-03-02",
		Period: "ordinary",
		Action: "write the quarterly letter",
		State:  "issued",
	}
}

func TestSynthesizeStructure(t *testing.T) {
	s := testSynthesizer(suggest.DefaultStatic())
	plan, err := s.Synthesize(context.Background(), testDirective(), domain.CabinetReport{})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if plan.Date != "2026-03-02" || plan.PrimaryAction != "write the quarterly letter" {
		t.Fatalf("plan header: %+v", plan)
	}
	// 5 windows + primary + 3 routines + 2 non-negotiables + 3 emergent
	if len(plan.Blocks) != 14 {
		t.Fatalf("expected 14 blocks, got %d", len(plan.Blocks))
	}
	roles := map[string]int{}
	for _, b := range plan.Blocks {
		roles[b.Role]++
	}
	if roles["observance"] != 5 || roles["primary action"] != 1 || roles["routine"] != 3 ||
		roles["non-negotiable"] != 2 || roles["emergent"] != 3 {
		t.Fatalf("unexpected role mix: %v", roles)
	}
	for i := 1; i < len(plan.Blocks); i++ {
		if plan.Blocks[i-1].Start > plan.Blocks[i].Start {
			t.Fatalf("blocks not ordered by start: %s after %s", plan.Blocks[i].Start, plan.Blocks[i-1].Start)
		}
	}
	if len(plan.Checkpoints) != 2 {
		t.Fatalf("expected 2 decision checkpoints, got %d", len(plan.Checkpoints))
	}
}

func TestSynthesizeFreeSpaceInvariant(t *testing.T) {
	s := testSynthesizer(suggest.DefaultStatic())
	plan, err := s.Synthesize(context.Background(), testDirective(), domain.CabinetReport{})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if AllocatedMinutes(plan.Blocks) > 864 {
		t.Fatalf("allocated %d exceeds ceiling", AllocatedMinutes(plan.Blocks))
	}
	if plan.FreeSpacePercent < 40 {
		t.Fatalf("free space %.2f below floor", plan.FreeSpacePercent)
	}
}

func TestSynthesizeReducesOvercommit(t *testing.T) {
	// One oversized emergent candidate pushes past the ceiling; reduction
	// must bring flexible blocks back under it.
	gen := suggest.Static{Candidates: []suggest.BlockCandidate{
		{Start: "13:00", Duration: "900min", Activity: "everything at once", Energy: 3},
	}}
	s := testSynthesizer(gen)
	plan, err := s.Synthesize(context.Background(), testDirective(), domain.CabinetReport{})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if got := AllocatedMinutes(plan.Blocks); got > 864 {
		t.Fatalf("allocated %d after reduction exceeds ceiling", got)
	}
	if plan.FreeSpacePercent < 40 {
		t.Fatalf("free space %.2f below floor after reduction", plan.FreeSpacePercent)
	}
	for _, b := range plan.Blocks {
		if b.Role == "primary action" && ParseDurationMinutes(b.Duration) != 120 {
			t.Fatalf("anchored primary action was reduced: %s", b.Duration)
		}
	}
}

func TestSynthesizeWithoutSuggest(t *testing.T) {
	s := testSynthesizer(nil)
	plan, err := s.Synthesize(context.Background(), testDirective(), domain.CabinetReport{})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	for _, b := range plan.Blocks {
		if b.Role == "emergent" {
			t.Fatalf("expected no emergent blocks without a generator")
		}
	}
}

func TestReduceArithmetic(t *testing.T) {
	blocks := []domain.TimeBlock{
		{ID: "a", Duration: "10h", Flexible: false},
		{ID: "b", Duration: "200min", Flexible: true},
		{ID: "c", Duration: "200min", Flexible: true},
	}
	out := Reduce(blocks, 864)
	// budget = 864-600 = 264; factor = 264/400; 200 -> 132 (truncated)
	if d := ParseDurationMinutes(out[1].Duration); d != 132 {
		t.Fatalf("flexible block b = %d, want 132", d)
	}
	if d := ParseDurationMinutes(out[2].Duration); d != 132 {
		t.Fatalf("flexible block c = %d, want 132", d)
	}
	if d := ParseDurationMinutes(out[0].Duration); d != 600 {
		t.Fatalf("anchored block changed: %d", d)
	}
	// input untouched
	if blocks[1].Duration != "200min" {
		t.Fatalf("Reduce mutated its input")
	}
}

func TestReduceNoopWhenUnderCeiling(t *testing.T) {
	blocks := []domain.TimeBlock{
		{ID: "a", Duration: "2h", Flexible: false},
		{ID: "b", Duration: "1h", Flexible: true},
	}
	out := Reduce(blocks, 864)
	if ParseDurationMinutes(out[1].Duration) != 60 {
		t.Fatalf("reduced a plan already under the ceiling")
	}
}

func TestReduceAllAnchored(t *testing.T) {
	blocks := []domain.TimeBlock{
		{ID: "a", Duration: "20h", Flexible: false},
	}
	out := Reduce(blocks, 864)
	if ParseDurationMinutes(out[0].Duration) != 1200 {
		t.Fatalf("anchored-only plan must pass through unchanged")
	}
}
