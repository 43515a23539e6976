package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"daycourt/internal/config"
	"daycourt/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// ErrStaleRevision is returned when a plan write carries a revision that no
// longer matches the stored one. Refinement callers treat it as a no-op.
var ErrStaleRevision = errors.New("stale plan revision")

// --- courts ---

func (r Repo) InsertCourt(ctx context.Context, tx *sql.Tx, id, period, description, createdAt string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO courts(id,period,status,description,created_at) VALUES (?,?,?,?,?)`,
		id, period, "active", nullable(description), createdAt)
	return err
}

func (r Repo) GetCourt(ctx context.Context, id string) (string, error) {
	var period string
	err := r.DB.QueryRowContext(ctx, `SELECT period FROM courts WHERE id=?`, id).Scan(&period)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return period, err
}

func (r Repo) SingleCourt(ctx context.Context) (string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM courts`)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return "", ErrNotFound
	}
	if len(ids) > 1 {
		return "", fmt.Errorf("multiple courts exist; specify --court")
	}
	return ids[0], nil
}

// --- court config ---

func (r Repo) GetCourtConfig(ctx context.Context, courtID string) (*config.Config, error) {
	var raw string
	err := r.DB.QueryRowContext(ctx, `SELECT config_yaml FROM court_configs WHERE court_id=?`, courtID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return config.FromYAML([]byte(raw))
}

func (r Repo) UpsertCourtConfig(ctx context.Context, courtID string, cfg *config.Config) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := r.UpsertCourtConfigTx(ctx, tx, courtID, cfg); err != nil {
		return err
	}
	return tx.Commit()
}

func (r Repo) UpsertCourtConfigTx(ctx context.Context, tx *sql.Tx, courtID string, cfg *config.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `INSERT INTO court_configs(court_id,config_yaml,updated_at) VALUES (?,?,?)
		ON CONFLICT(court_id) DO UPDATE SET config_yaml=excluded.config_yaml, updated_at=excluded.updated_at`,
		courtID, string(raw), now)
	return err
}

// --- directives ---

func scanDirective(row interface{ Scan(...any) error }) (domain.Directive, error) {
	var d domain.Directive
	var direction, startedAt, completedAt, notes, wisdom sql.NullString
	var principleScore, verificationScore sql.NullFloat64
	err := row.Scan(&d.ID, &d.Date, &d.Period, &direction, &d.Action, &d.Validated, &principleScore,
		&d.State, &startedAt, &completedAt, &verificationScore, &notes, &wisdom, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	if direction.Valid {
		d.Direction = direction.String
	}
	if principleScore.Valid {
		v := principleScore.Float64
		d.PrincipleScore = &v
	}
	if startedAt.Valid {
		v := startedAt.String
		d.StartedAt = &v
	}
	if completedAt.Valid {
		v := completedAt.String
		d.CompletedAt = &v
	}
	if verificationScore.Valid {
		v := verificationScore.Float64
		d.VerificationScore = &v
	}
	if notes.Valid {
		v := notes.String
		d.VerificationNotes = &v
	}
	if wisdom.Valid {
		v := wisdom.String
		d.Wisdom = &v
	}
	return d, nil
}

const directiveColumns = `id,date,period,direction,action,validated,principle_score,state,started_at,completed_at,verification_score,verification_notes,wisdom,created_at,updated_at`

func (r Repo) InsertDirective(ctx context.Context, tx *sql.Tx, d domain.Directive) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO directives(`+directiveColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.Date, d.Period, nullable(d.Direction), d.Action, d.Validated, nullableFloat(d.PrincipleScore),
		d.State, nullablePtr(d.StartedAt), nullablePtr(d.CompletedAt), nullableFloat(d.VerificationScore),
		nullablePtr(d.VerificationNotes), nullablePtr(d.Wisdom), d.CreatedAt, d.UpdatedAt)
	return err
}

func (r Repo) UpdateDirective(ctx context.Context, tx *sql.Tx, d domain.Directive) error {
	res, err := tx.ExecContext(ctx, `UPDATE directives SET period=?, direction=?, action=?, state=?, validated=?, principle_score=?, started_at=?, completed_at=?,
		verification_score=?, verification_notes=?, wisdom=?, updated_at=? WHERE id=?`,
		d.Period, nullable(d.Direction), d.Action, d.State, d.Validated, nullableFloat(d.PrincipleScore), nullablePtr(d.StartedAt), nullablePtr(d.CompletedAt),
		nullableFloat(d.VerificationScore), nullablePtr(d.VerificationNotes), nullablePtr(d.Wisdom), d.UpdatedAt, d.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetDirective(ctx context.Context, id string) (domain.Directive, error) {
	return scanDirective(r.DB.QueryRowContext(ctx, `SELECT `+directiveColumns+` FROM directives WHERE id=?`, id))
}

// LatestDirectiveByDate returns the most recently created directive for a date.
func (r Repo) LatestDirectiveByDate(ctx context.Context, date string) (domain.Directive, error) {
	return scanDirective(r.DB.QueryRowContext(ctx,
		`SELECT `+directiveColumns+` FROM directives WHERE date=? ORDER BY created_at DESC, id DESC LIMIT 1`, date))
}

// ActiveDirectiveByDate returns the directive in state issued or executing for
// a date, if any. This is the read half of the read-check-then-write
// uniqueness rule.
func (r Repo) ActiveDirectiveByDate(ctx context.Context, date string) (domain.Directive, error) {
	return scanDirective(r.DB.QueryRowContext(ctx,
		`SELECT `+directiveColumns+` FROM directives WHERE date=? AND state IN ('issued','executing') ORDER BY created_at DESC, id DESC LIMIT 1`, date))
}

func (r Repo) ListDirectives(ctx context.Context, limit int) ([]domain.Directive, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+directiveColumns+` FROM directives ORDER BY date DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Directive
	for rows.Next() {
		d, err := scanDirective(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- plans ---

// GetPlan loads the stored plan for a date.
func (r Repo) GetPlan(ctx context.Context, date string) (domain.DayPlan, error) {
	var raw string
	var revision int64
	var updatedAt string
	err := r.DB.QueryRowContext(ctx, `SELECT plan_json, revision, updated_at FROM plans WHERE date=?`, date).
		Scan(&raw, &revision, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.DayPlan{}, ErrNotFound
	}
	if err != nil {
		return domain.DayPlan{}, err
	}
	var plan domain.DayPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return domain.DayPlan{}, fmt.Errorf("decode plan %s: %w", date, err)
	}
	plan.Revision = revision
	plan.UpdatedAt = updatedAt
	return plan, nil
}

// PutPlan replaces the plan for a date wholesale, resetting the revision to 1
// or bumping it if a plan already exists.
func (r Repo) PutPlan(ctx context.Context, tx *sql.Tx, plan domain.DayPlan) (domain.DayPlan, error) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return plan, fmt.Errorf("encode plan: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO plans(date,revision,plan_json,updated_at) VALUES (?,1,?,?)
		ON CONFLICT(date) DO UPDATE SET revision=plans.revision+1, plan_json=excluded.plan_json, updated_at=excluded.updated_at`,
		plan.Date, string(raw), plan.UpdatedAt)
	if err != nil {
		return plan, err
	}
	var revision int64
	if err := tx.QueryRowContext(ctx, `SELECT revision FROM plans WHERE date=?`, plan.Date).Scan(&revision); err != nil {
		return plan, err
	}
	plan.Revision = revision
	return plan, nil
}

// UpdatePlanRevision stores a refined plan only when expectedRevision still
// matches, bumping the revision by one. A mismatch yields ErrStaleRevision.
func (r Repo) UpdatePlanRevision(ctx context.Context, tx *sql.Tx, plan domain.DayPlan, expectedRevision int64) (domain.DayPlan, error) {
	plan.Revision = expectedRevision + 1
	raw, err := json.Marshal(plan)
	if err != nil {
		return plan, fmt.Errorf("encode plan: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE plans SET revision=?, plan_json=?, updated_at=? WHERE date=? AND revision=?`,
		plan.Revision, string(raw), plan.UpdatedAt, plan.Date, expectedRevision)
	if err != nil {
		return plan, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return plan, ErrStaleRevision
	}
	return plan, nil
}

// --- events ---

func (r Repo) ListEvents(ctx context.Context, date string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, ts, type, COALESCE(date,''), entity_kind, COALESCE(entity_id,''), actor_id, payload_json FROM events`
	var args []any
	if date != "" {
		query += ` WHERE date=?`
		args = append(args, date)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.Date, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- helpers ---

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullablePtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
