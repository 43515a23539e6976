package plan

import (
	"testing"

	"daycourt/internal/domain"
)

func TestValidCheckpoint(t *testing.T) {
	for _, c := range Checkpoints {
		if !ValidCheckpoint(c) {
			t.Errorf("%s should be valid", c)
		}
	}
	if ValidCheckpoint("brunch") {
		t.Errorf("unknown checkpoint accepted")
	}
}

func TestMorningCheckpointPartitionsAnchoredFirst(t *testing.T) {
	blocks := []domain.TimeBlock{
		{ID: "r1", Flexible: true},
		{ID: "w1", Flexible: false},
		{ID: "r2", Flexible: true},
		{ID: "w2", Flexible: false},
	}
	out, outcome := refineBlocks(CheckpointMorning, blocks)
	if outcome.NextCycleDue || outcome.Closed {
		t.Fatalf("morning has no cycle side effects")
	}
	want := []string{"w1", "w2", "r1", "r2"}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("order %d = %s, want %s", i, out[i].ID, id)
		}
	}
}

func TestMiddayCheckpointSplitsAtAfternoon(t *testing.T) {
	blocks := []domain.TimeBlock{
		{ID: "late", Start: "15:00"},
		{ID: "early", Start: "09:00"},
		{ID: "edge", Start: "14:00"},
	}
	out, _ := refineBlocks(CheckpointMidday, blocks)
	want := []string{"early", "late", "edge"}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("order %d = %s, want %s", i, out[i].ID, id)
		}
	}
}

func TestEveningAndNightOutcomes(t *testing.T) {
	blocks := []domain.TimeBlock{{ID: "a", Start: "10:00"}}
	out, outcome := refineBlocks(CheckpointEvening, blocks)
	if !outcome.NextCycleDue || outcome.Closed {
		t.Fatalf("evening outcome: %+v", outcome)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("evening must not mutate blocks")
	}
	_, outcome = refineBlocks(CheckpointNight, blocks)
	if !outcome.Closed || outcome.NextCycleDue {
		t.Fatalf("night outcome: %+v", outcome)
	}
}

func TestAfternoonCheckpointPassesThrough(t *testing.T) {
	blocks := []domain.TimeBlock{{ID: "a"}, {ID: "b"}}
	out, outcome := refineBlocks(CheckpointAfternoon, blocks)
	if outcome != (Outcome{}) {
		t.Fatalf("afternoon outcome: %+v", outcome)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("afternoon must not mutate blocks")
	}
}
