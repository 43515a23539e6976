package engine

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
	"daycourt/internal/principles"
	"daycourt/internal/repo"
)

// Engine owns the directive lifecycle. One directive per calendar day may be
// issued or executing; uniqueness is a read-check-then-write rule, so a
// duplicate issue degrades to a warning and returns the existing directive.
type Engine struct {
	DB        *sql.DB
	Repo      repo.Repo
	Events    events.Writer
	Config    *config.Config
	Validator principles.Validator
	Logger    *log.Logger
	Now       func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Validator: principles.Weighted{
			Catalog:   cfg.Principles.Catalog,
			PassScore: cfg.Principles.PassScore,
		},
		Now: time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// InitCourt initializes a new court with migrations already run.
func (e Engine) InitCourt(ctx context.Context, courtID, description, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	now := e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.InsertCourt(ctx, tx, courtID, e.Config.PeriodOrDefault(), description, now); err != nil {
		return fmt.Errorf("insert court: %w", err)
	}
	if err := e.Repo.UpsertCourtConfigTx(ctx, tx, courtID, e.Config); err != nil {
		return fmt.Errorf("insert court config: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "court.init", "", "court", courtID, actorID, events.EventPayload{"period": e.Config.PeriodOrDefault()}); err != nil {
		return err
	}
	return tx.Commit()
}

// IssueOptions are parameters for issuing the day's directive.
type IssueOptions struct {
	Date      string
	Period    string
	Direction string
	Action    string
	Validate  bool
	ActorID   string
}

// Issue creates the day's directive in state issued. When a directive is
// already issued or executing for the date, the existing one is returned and
// created is false.
func (e Engine) Issue(ctx context.Context, opts IssueOptions) (d domain.Directive, created bool, err error) {
	if e.Config == nil {
		return domain.Directive{}, false, errors.New("config not loaded")
	}
	if opts.Action == "" {
		return domain.Directive{}, false, ValidationError{Msg: "action is required"}
	}
	if opts.Date == "" {
		opts.Date = e.now().UTC().Format("2006-01-02")
	}
	if opts.Period == "" {
		opts.Period = e.Config.PeriodOrDefault()
	}
	if !domain.ValidPeriod(opts.Period) {
		return domain.Directive{}, false, ValidationError{Msg: fmt.Sprintf("period must be one of %v", domain.Periods)}
	}

	existing, err := e.Repo.ActiveDirectiveByDate(ctx, opts.Date)
	if err == nil {
		e.logger().Printf("WARNING: directive already %s for %s; returning existing (id=%s)", existing.State, opts.Date, existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.Directive{}, false, err
	}

	now := e.now().UTC().Format(time.RFC3339)
	d = domain.Directive{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(opts.Date+"|"+opts.Action+"|"+now)).String(),
		Date:      opts.Date,
		Period:    opts.Period,
		Direction: opts.Direction,
		Action:    opts.Action,
		State:     "issued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if opts.Validate && e.Validator != nil {
		res, verr := e.Validator.Validate(ctx, opts.Direction+" "+opts.Action)
		if verr != nil {
			// Annotation only; a validator failure never blocks issuance.
			e.logger().Printf("principle validation failed for %s: %v", opts.Date, verr)
		} else {
			score := res.Score
			d.PrincipleScore = &score
			d.Validated = res.Passes
		}
	}

	// An unresolved pending directive for the date is promoted rather than
	// duplicated.
	if prev, perr := e.Repo.LatestDirectiveByDate(ctx, opts.Date); perr == nil && prev.State == "pending" {
		d.ID = prev.ID
		d.CreatedAt = prev.CreatedAt
		return d, true, e.promotePending(ctx, d, opts.ActorID)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Directive{}, false, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertDirective(ctx, tx, d); err != nil {
		return domain.Directive{}, false, err
	}
	if err := e.Events.Append(ctx, tx, "directive.issued", d.Date, "directive", d.ID, opts.ActorID, events.EventPayload{
		"action":    d.Action,
		"period":    d.Period,
		"validated": d.Validated,
	}); err != nil {
		return domain.Directive{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Directive{}, false, err
	}
	return d, true, nil
}

func (e Engine) promotePending(ctx context.Context, d domain.Directive, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	d.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateDirective(ctx, tx, d); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "directive.issued", d.Date, "directive", d.ID, actorID, events.EventPayload{
		"action":    d.Action,
		"period":    d.Period,
		"validated": d.Validated,
		"promoted":  true,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// OpenConsultation records a pending directive for the date while the
// consultation is still in progress. Issue promotes it later.
func (e Engine) OpenConsultation(ctx context.Context, date, actorID string) (domain.Directive, error) {
	if date == "" {
		date = e.now().UTC().Format("2006-01-02")
	}
	if prev, err := e.Repo.LatestDirectiveByDate(ctx, date); err == nil {
		if prev.State == "pending" || prev.State == "issued" || prev.State == "executing" {
			return prev, nil
		}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Directive{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	d := domain.Directive{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(date+"|pending|"+now)).String(),
		Date:      date,
		Period:    e.Config.PeriodOrDefault(),
		Action:    "(consultation in progress)",
		State:     "pending",
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Directive{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertDirective(ctx, tx, d); err != nil {
		return domain.Directive{}, err
	}
	if err := e.Events.Append(ctx, tx, "directive.opened", date, "directive", d.ID, actorID, nil); err != nil {
		return domain.Directive{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Directive{}, err
	}
	return d, nil
}

// BeginExecution moves the day's issued directive to executing. Duplicate
// triggers are tolerated: an already executing or completed directive is
// returned unchanged.
func (e Engine) BeginExecution(ctx context.Context, date, actorID string) (domain.Directive, error) {
	if date == "" {
		date = e.now().UTC().Format("2006-01-02")
	}
	d, err := e.Repo.LatestDirectiveByDate(ctx, date)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Directive{}, TransitionError{To: "executing"}
		}
		return domain.Directive{}, err
	}
	switch d.State {
	case "executing", "completed":
		return d, nil
	case "issued":
	default:
		return domain.Directive{}, TransitionError{From: d.State, To: "executing"}
	}

	now := e.now().UTC().Format(time.RFC3339)
	d.State = "executing"
	d.StartedAt = &now
	d.UpdatedAt = now
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateDirective(ctx, tx, d); err != nil {
		return d, err
	}
	if err := e.Events.Append(ctx, tx, "directive.execution.started", d.Date, "directive", d.ID, actorID, nil); err != nil {
		return d, err
	}
	if err := tx.Commit(); err != nil {
		return d, err
	}
	return d, nil
}

// CompleteExecution closes the executing directive. Legal only from executing.
func (e Engine) CompleteExecution(ctx context.Context, date, notes, actorID string) (domain.Directive, error) {
	if date == "" {
		date = e.now().UTC().Format("2006-01-02")
	}
	d, err := e.Repo.LatestDirectiveByDate(ctx, date)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Directive{}, TransitionError{To: "completed"}
		}
		return domain.Directive{}, err
	}
	if d.State != "executing" {
		return domain.Directive{}, TransitionError{From: d.State, To: "completed"}
	}
	now := e.now().UTC().Format(time.RFC3339)
	d.State = "completed"
	d.CompletedAt = &now
	d.UpdatedAt = now
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateDirective(ctx, tx, d); err != nil {
		return d, err
	}
	if err := e.Events.Append(ctx, tx, "directive.execution.completed", d.Date, "directive", d.ID, actorID, events.EventPayload{"notes": notes}); err != nil {
		return d, err
	}
	if err := tx.Commit(); err != nil {
		return d, err
	}
	return d, nil
}

// RecordVerification stores the judicial score and narrative. Legal from
// executing or completed; it does not change lifecycle state.
func (e Engine) RecordVerification(ctx context.Context, date string, score float64, narrative, wisdom, actorID string) (domain.Directive, error) {
	if score < 0 || score > 100 {
		return domain.Directive{}, ValidationError{Msg: "verification score must be within 0..100"}
	}
	if date == "" {
		date = e.now().UTC().Format("2006-01-02")
	}
	d, err := e.Repo.LatestDirectiveByDate(ctx, date)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Directive{}, TransitionError{To: "verified"}
		}
		return domain.Directive{}, err
	}
	if d.State != "executing" && d.State != "completed" {
		return domain.Directive{}, TransitionError{From: d.State, To: "verified"}
	}
	d.VerificationScore = &score
	if narrative != "" {
		d.VerificationNotes = &narrative
	}
	if wisdom != "" {
		d.Wisdom = &wisdom
	}
	d.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateDirective(ctx, tx, d); err != nil {
		return d, err
	}
	if err := e.Events.Append(ctx, tx, "directive.verified", d.Date, "directive", d.ID, actorID, events.EventPayload{"score": score}); err != nil {
		return d, err
	}
	if err := tx.Commit(); err != nil {
		return d, err
	}
	return d, nil
}

// Cancel abandons the day's directive from pending, issued or executing.
func (e Engine) Cancel(ctx context.Context, date, reason, actorID string) (domain.Directive, error) {
	if date == "" {
		date = e.now().UTC().Format("2006-01-02")
	}
	d, err := e.Repo.LatestDirectiveByDate(ctx, date)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Directive{}, TransitionError{To: "cancelled"}
		}
		return domain.Directive{}, err
	}
	switch d.State {
	case "pending", "issued", "executing":
	default:
		return domain.Directive{}, TransitionError{From: d.State, To: "cancelled"}
	}
	d.State = "cancelled"
	d.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateDirective(ctx, tx, d); err != nil {
		return d, err
	}
	if err := e.Events.Append(ctx, tx, "directive.cancelled", d.Date, "directive", d.ID, actorID, events.EventPayload{"reason": reason}); err != nil {
		return d, err
	}
	if err := tx.Commit(); err != nil {
		return d, err
	}
	return d, nil
}
