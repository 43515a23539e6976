package plan

import "daycourt/internal/domain"

// Checkpoint names the five fixed daily refinement moments.
type Checkpoint string

const (
	CheckpointMorning   Checkpoint = "morning"
	CheckpointMidday    Checkpoint = "midday"
	CheckpointAfternoon Checkpoint = "afternoon"
	CheckpointEvening   Checkpoint = "evening"
	CheckpointNight     Checkpoint = "night"
)

// Checkpoints in day order.
var Checkpoints = []Checkpoint{
	CheckpointMorning,
	CheckpointMidday,
	CheckpointAfternoon,
	CheckpointEvening,
	CheckpointNight,
}

// ValidCheckpoint reports whether c names a known checkpoint.
func ValidCheckpoint(c Checkpoint) bool {
	for _, v := range Checkpoints {
		if v == c {
			return true
		}
	}
	return false
}

// afternoonThreshold splits the day for the midday checkpoint.
const afternoonThreshold = "14:00"

// Outcome carries checkpoint side effects that are not block mutations.
type Outcome struct {
	// NextCycleDue is set by the evening checkpoint: the next directive's
	// issuance cycle should begin.
	NextCycleDue bool
	// Closed is set by the terminal night checkpoint.
	Closed bool
}

// refineBlocks applies checkpoint-specific update semantics to the stored
// blocks. Morning, midday and afternoon are deliberate pass-throughs on
// content: the partitioning is real, the direction-aware reshuffling inside
// each partition is still owned by a future decision (see DESIGN.md).
func refineBlocks(c Checkpoint, blocks []domain.TimeBlock) ([]domain.TimeBlock, Outcome) {
	switch c {
	case CheckpointMorning:
		var anchored, flexible []domain.TimeBlock
		for _, b := range blocks {
			if b.Flexible {
				flexible = append(flexible, b)
			} else {
				anchored = append(anchored, b)
			}
		}
		return append(anchored, flexible...), Outcome{}
	case CheckpointMidday:
		var morning, afternoon []domain.TimeBlock
		for _, b := range blocks {
			if b.Start < afternoonThreshold {
				morning = append(morning, b)
			} else {
				afternoon = append(afternoon, b)
			}
		}
		// Only the afternoon partition is eligible for mutation.
		return append(morning, afternoon...), Outcome{}
	case CheckpointAfternoon:
		return blocks, Outcome{}
	case CheckpointEvening:
		return blocks, Outcome{NextCycleDue: true}
	case CheckpointNight:
		return blocks, Outcome{Closed: true}
	default:
		return blocks, Outcome{}
	}
}
