package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"daycourt/internal/config"
	"daycourt/internal/domain"
	"daycourt/internal/events"
	"daycourt/internal/repo"
)

// Store owns the persisted current plan per date. All writes go through a
// single transaction, which serializes concurrent refinement for the same
// day; the revision counter drops refinements that raced a replan.
type Store struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Logger *log.Logger
	Now    func() time.Time
}

func NewStore(db *sql.DB, cfg *config.Config) Store {
	return Store{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Store) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// Get loads the stored plan for a date.
func (s Store) Get(ctx context.Context, date string) (domain.DayPlan, error) {
	return s.Repo.GetPlan(ctx, date)
}

// Save replaces the plan for its date wholesale. Issuing a new plan this way
// bumps the revision, which invalidates in-flight refinements.
func (s Store) Save(ctx context.Context, plan domain.DayPlan, actorID string) (domain.DayPlan, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return plan, err
	}
	defer tx.Rollback()
	plan.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	saved, err := s.Repo.PutPlan(ctx, tx, plan)
	if err != nil {
		return plan, err
	}
	if err := s.Events.Append(ctx, tx, "plan.synthesized", plan.Date, "plan", plan.Date, actorID, events.EventPayload{
		"free_space_percent": plan.FreeSpacePercent,
		"blocks":             len(plan.Blocks),
		"revision":           saved.Revision,
	}); err != nil {
		return plan, err
	}
	if err := tx.Commit(); err != nil {
		return plan, err
	}
	return saved, nil
}

// Refine applies a checkpoint to the stored plan. The refresh of updated_at
// happens on every call, whether or not any block changed. A stale revision
// (a replan raced this refinement) is a logged no-op returning the stored
// plan.
func (s Store) Refine(ctx context.Context, date string, checkpoint Checkpoint, actorID string) (domain.DayPlan, Outcome, error) {
	if !ValidCheckpoint(checkpoint) {
		return domain.DayPlan{}, Outcome{}, fmt.Errorf("unknown checkpoint %q", checkpoint)
	}
	current, err := s.Repo.GetPlan(ctx, date)
	if err != nil {
		return domain.DayPlan{}, Outcome{}, err
	}

	refined := current
	var outcome Outcome
	refined.Blocks, outcome = refineBlocks(checkpoint, current.Blocks)
	refined.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return current, outcome, err
	}
	defer tx.Rollback()
	saved, err := s.Repo.UpdatePlanRevision(ctx, tx, refined, current.Revision)
	if err != nil {
		if errors.Is(err, repo.ErrStaleRevision) {
			s.logger().Printf("refinement at %s checkpoint dropped for %s: plan revision moved on", checkpoint, date)
			stored, gerr := s.Repo.GetPlan(ctx, date)
			if gerr != nil {
				return current, outcome, gerr
			}
			return stored, Outcome{}, nil
		}
		return current, outcome, err
	}
	if err := s.Events.Append(ctx, tx, "plan.refined", date, "plan", date, actorID, events.EventPayload{
		"checkpoint": string(checkpoint),
		"revision":   saved.Revision,
	}); err != nil {
		return current, outcome, err
	}
	if err := tx.Commit(); err != nil {
		return current, outcome, err
	}
	return saved, outcome, nil
}

// AddBlock appends a manual adjustment block to the stored plan, re-checking
// the free-space invariant with reduction.
func (s Store) AddBlock(ctx context.Context, date string, block domain.TimeBlock, actorID string) (domain.DayPlan, error) {
	current, err := s.Repo.GetPlan(ctx, date)
	if err != nil {
		return domain.DayPlan{}, err
	}
	if block.Activity == "" {
		return current, fmt.Errorf("block activity required")
	}
	if block.Start == "" {
		return current, fmt.Errorf("block start required")
	}
	if block.Energy < 1 || block.Energy > 5 {
		block.Energy = 3
	}
	if block.Duration == "" {
		block.Duration = FormatMinutes(DefaultBlockMinutes)
	}
	if block.ID == "" {
		block.ID = uuid.NewString()
	}

	cfg := s.Config
	if cfg == nil {
		cfg = config.Default("daycourt")
	}
	ceiling := int((100 - cfg.FreeMinimum()) / 100 * DayMinutes)

	updated := current
	updated.Blocks = append(append([]domain.TimeBlock{}, current.Blocks...), block)
	if AllocatedMinutes(updated.Blocks) > ceiling {
		updated.Blocks = Reduce(updated.Blocks, ceiling)
	}
	allocated := AllocatedMinutes(updated.Blocks)
	updated.FreeSpacePercent = float64(DayMinutes-allocated) / DayMinutes * 100
	updated.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return current, err
	}
	defer tx.Rollback()
	saved, err := s.Repo.UpdatePlanRevision(ctx, tx, updated, current.Revision)
	if err != nil {
		return current, err
	}
	if err := s.Events.Append(ctx, tx, "plan.block.added", date, "plan", date, actorID, events.EventPayload{
		"activity": block.Activity,
		"start":    block.Start,
	}); err != nil {
		return current, err
	}
	if err := tx.Commit(); err != nil {
		return current, err
	}
	return saved, nil
}
