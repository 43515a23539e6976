package plan

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"daycourt/internal/config"
	"daycourt/internal/domain"
	"daycourt/internal/suggest"
	"daycourt/internal/windows"
)

// DayMinutes is the full allocation universe per date.
const DayMinutes = 1440

const windowBlockMinutes = 15

// Synthesizer assembles a day plan from a directive, a cabinet report and the
// configured day structure. Collaborator failures degrade to static
// fallbacks; synthesis always returns a best-effort plan.
type Synthesizer struct {
	Windows windows.Provider
	Suggest suggest.Generator
	Config  *config.Config
	Logger  *log.Logger
	Now     func() time.Time
}

func (s Synthesizer) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

func (s Synthesizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Best-time table for non-negotiables; names missing from the table land on
// the fallback slot.
var nonNegotiableSlots = map[string]struct {
	Time     string
	Duration string
	Energy   int
}{
	"exercise":        {"07:30", "45min", 4},
	"family dinner":   {"19:30", "1h", 3},
	"prayer":          {"06:45", "15min", 2},
	"reading to kids": {"20:30", "30min", 2},
	"sabbath walk":    {"16:00", "1h", 3},
}

var nonNegotiableFallback = struct {
	Time     string
	Duration string
	Energy   int
}{"18:00", "1h", 3}

var routineAlternatives = []string{
	"shift 30 minutes earlier if the morning runs long",
	"shift 30 minutes later if the prior block overruns",
	"shrink to half length when the day is short on time",
}

// Synthesize builds the ordered block sequence for the directive's date and
// enforces the free-space invariant, reducing flexible blocks when needed.
func (s Synthesizer) Synthesize(ctx context.Context, d domain.Directive, cab domain.CabinetReport) (domain.DayPlan, error) {
	if err := ctx.Err(); err != nil {
		return domain.DayPlan{}, err
	}
	cfg := s.Config
	if cfg == nil {
		cfg = config.Default("daycourt")
	}

	var blocks []domain.TimeBlock

	// 1. Anchors: one block per canonical window plus the primary action.
	table := windows.Resolve(ctx, s.Windows, d.Date, s.Logger)
	for _, name := range windows.Names {
		w := table[name]
		blocks = append(blocks, domain.TimeBlock{
			ID:       blockID(d.Date, "window", name),
			Start:    w.Start,
			Duration: FormatMinutes(windowBlockMinutes),
			Activity: name,
			Role:     "observance",
			Energy:   2,
			Flexible: false,
		})
	}
	primaryStart := cfg.Structure.PrimaryActionStart
	if primaryStart == "" {
		primaryStart = "09:30"
	}
	primaryDuration := cfg.Structure.PrimaryActionDuration
	if primaryDuration == "" {
		primaryDuration = "2h"
	}
	blocks = append(blocks, domain.TimeBlock{
		ID:       blockID(d.Date, "primary", d.Action),
		Start:    primaryStart,
		Duration: primaryDuration,
		Activity: d.Action,
		Role:     "primary action",
		Energy:   5,
		Flexible: false,
	})

	// 2. Routines are flexible and carry the canned adjustments.
	for _, r := range cfg.Structure.Routines {
		energy := r.Energy
		if energy == 0 {
			energy = 2
		}
		duration := r.Duration
		if duration == "" {
			duration = "30min"
		}
		blocks = append(blocks, domain.TimeBlock{
			ID:           blockID(d.Date, "routine", r.Name),
			Start:        r.Time,
			Duration:     duration,
			Activity:     r.Name,
			Role:         "routine",
			Energy:       energy,
			Flexible:     true,
			Alternatives: routineAlternatives,
		})
	}

	// 3. Non-negotiables resolve through the best-time table and stay anchored.
	for _, name := range cfg.Structure.NonNegotiables {
		slot, ok := nonNegotiableSlots[name]
		if !ok {
			slot = nonNegotiableFallback
		}
		blocks = append(blocks, domain.TimeBlock{
			ID:       blockID(d.Date, "non-negotiable", name),
			Start:    slot.Time,
			Duration: slot.Duration,
			Activity: name,
			Role:     "non-negotiable",
			Energy:   slot.Energy,
			Flexible: false,
		})
	}

	// 4. Emergent blocks fill what remains of the allocation ceiling.
	ceiling := s.ceilingMinutes(cfg)
	remaining := ceiling - AllocatedMinutes(blocks)
	if remaining > 0 && s.Suggest != nil {
		candidates, err := s.Suggest.Generate(ctx, emergentPrompt(d, cab), suggest.Constraints{
			Date:            d.Date,
			MaxTotalMinutes: remaining,
			Count:           3,
		})
		if err != nil {
			s.logger().Printf("emergent block generation failed for %s, continuing without: %v", d.Date, err)
		}
		for i, c := range candidates {
			energy := c.Energy
			if energy < 1 || energy > 5 {
				energy = 3
			}
			blocks = append(blocks, domain.TimeBlock{
				ID:       blockID(d.Date, "emergent", fmt.Sprintf("%d-%s", i, c.Activity)),
				Start:    c.Start,
				Duration: c.Duration,
				Activity: c.Activity,
				Role:     "emergent",
				Energy:   energy,
				Flexible: true,
			})
		}
	}

	// 5. Same-day HH:MM strings order lexicographically.
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })

	// 6. Invariant check with proportional reduction.
	if AllocatedMinutes(blocks) > ceiling {
		blocks = Reduce(blocks, ceiling)
	}
	allocated := AllocatedMinutes(blocks)
	freePct := float64(DayMinutes-allocated) / DayMinutes * 100
	if freePct < cfg.FreeMinimum() {
		// The shortfall is logged and surfaced in the plan rather than
		// rejecting it.
		s.logger().Printf("free-space invariant not met for %s even after reduction: %.1f%% < %.1f%%", d.Date, freePct, cfg.FreeMinimum())
	}

	plan := domain.DayPlan{
		Date:             d.Date,
		PrimaryAction:    d.Action,
		Blocks:           blocks,
		Checkpoints:      decisionCheckpoints(),
		FreeSpacePercent: freePct,
		NonNegotiables:   cfg.Structure.NonNegotiables,
		Flexible:         true,
		UpdatedAt:        s.now().UTC().Format(time.RFC3339),
	}
	return plan, nil
}

// ceilingMinutes derives the allocation ceiling from the free-space floor.
func (s Synthesizer) ceilingMinutes(cfg *config.Config) int {
	return int((100 - cfg.FreeMinimum()) / 100 * DayMinutes)
}

// AllocatedMinutes sums every block's parsed duration.
func AllocatedMinutes(blocks []domain.TimeBlock) int {
	total := 0
	for _, b := range blocks {
		total += ParseDurationMinutes(b.Duration)
	}
	return total
}

// Reduce scales flexible blocks down linearly until the total fits the
// ceiling. Anchored blocks are untouched; flexible blocks all shrink by the
// same factor because emergent space is treated as fungible.
func Reduce(blocks []domain.TimeBlock, ceilingMinutes int) []domain.TimeBlock {
	anchored := 0
	flexible := 0
	for _, b := range blocks {
		if b.Flexible {
			flexible += ParseDurationMinutes(b.Duration)
		} else {
			anchored += ParseDurationMinutes(b.Duration)
		}
	}
	if flexible == 0 {
		return blocks
	}
	budget := ceilingMinutes - anchored
	if budget < 0 {
		budget = 0
	}
	if flexible <= budget {
		return blocks
	}
	factor := float64(budget) / float64(flexible)
	out := make([]domain.TimeBlock, len(blocks))
	copy(out, blocks)
	for i := range out {
		if !out[i].Flexible {
			continue
		}
		minutes := int(float64(ParseDurationMinutes(out[i].Duration)) * factor)
		out[i].Duration = FormatMinutes(minutes)
	}
	return out
}

func emergentPrompt(d domain.Directive, cab domain.CabinetReport) string {
	return fmt.Sprintf(
		"Propose short time blocks that advance today's directive %q (direction: %s). Cabinet coherence %.0f, conflicts: %d.",
		d.Action, d.Direction, cab.GlobalCoherence, len(cab.Conflicts))
}

// decisionCheckpoints is static content, not computed.
func decisionCheckpoints() []domain.PlanCheckpoint {
	return []domain.PlanCheckpoint{
		{
			Name:   "post_deep_work_energy",
			Prompt: "Deep work is done. How is the energy?",
			Options: []string{
				"strong: take a second deep block",
				"steady: move to shallow work",
				"drained: walk, water, twenty minutes outdoors",
			},
		},
		{
			Name:   "pre_afternoon_body_check",
			Prompt: "Before the afternoon begins, what does the body ask for?",
			Options: []string{
				"food: eat before deciding anything",
				"movement: ten minutes of stretching",
				"rest: a short lie-down, timer set",
			},
		},
	}
}

func blockID(date, role, seed string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(date+"|"+role+"|"+seed)).String()
}
