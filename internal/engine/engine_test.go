package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"daycourt/internal/config"
	"daycourt/internal/db"
	"daycourt/internal/engine"
	"daycourt/internal/migrate"
	"daycourt/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("court-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if err := eng.InitCourt(ctx, "court-1", "test", "tester"); err != nil {
		t.Fatalf("init court: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func TestDirectiveLifecycle(t *testing.T) {
	env := newTestEnv(t)
	d, created, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{
		Date: "2026-03-02", Action: "write the quarterly letter", ActorID: "tester",
	})
	if err != nil || !created {
		t.Fatalf("issue: created=%v err=%v", created, err)
	}
	if d.State != "issued" {
		t.Fatalf("state after issue = %s", d.State)
	}
	d, err = env.Engine.BeginExecution(env.Ctx, "2026-03-02", "tester")
	if err != nil || d.State != "executing" {
		t.Fatalf("begin: state=%s err=%v", d.State, err)
	}
	if d.StartedAt == nil {
		t.Fatalf("started_at not set")
	}
	d, err = env.Engine.CompleteExecution(env.Ctx, "2026-03-02", "done early", "tester")
	if err != nil || d.State != "completed" {
		t.Fatalf("complete: state=%s err=%v", d.State, err)
	}
	if d.CompletedAt == nil {
		t.Fatalf("completed_at not set")
	}
	d, err = env.Engine.RecordVerification(env.Ctx, "2026-03-02", 85, "solid day", "start earlier", "tester")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if d.VerificationScore == nil || *d.VerificationScore != 85 {
		t.Fatalf("verification score missing")
	}
	if d.Wisdom == nil || *d.Wisdom != "start earlier" {
		t.Fatalf("wisdom missing")
	}
}

func TestIssueRequiresAction(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{Date: "2026-03-02", ActorID: "tester"})
	var verr engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDuplicateIssueReturnsExisting(t *testing.T) {
	env := newTestEnv(t)
	first, created, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{
		Date: "2026-03-02", Action: "first", ActorID: "tester",
	})
	if err != nil || !created {
		t.Fatalf("first issue: %v", err)
	}
	second, created, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{
		Date: "2026-03-02", Action: "second", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if created {
		t.Fatalf("duplicate issue reported as created")
	}
	if second.ID != first.ID || second.Action != "first" {
		t.Fatalf("duplicate issue did not return the existing directive")
	}
}

func TestBeginExecutionIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{Date: "2026-03-02", Action: "work", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	first, err := env.Engine.BeginExecution(env.Ctx, "2026-03-02", "tester")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	second, err := env.Engine.BeginExecution(env.Ctx, "2026-03-02", "tester")
	if err != nil {
		t.Fatalf("duplicate begin: %v", err)
	}
	if second.State != "executing" || second.StartedAt == nil || *second.StartedAt != *first.StartedAt {
		t.Fatalf("duplicate begin changed the directive")
	}
}

func TestIllegalTransitions(t *testing.T) {
	env := newTestEnv(t)
	// complete before begin
	_, _, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{Date: "2026-03-02", Action: "work", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.Engine.CompleteExecution(env.Ctx, "2026-03-02", "", "tester")
	var terr engine.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected transition error, got %v", err)
	}
	// verify before execution
	_, err = env.Engine.RecordVerification(env.Ctx, "2026-03-02", 50, "", "", "tester")
	if !errors.As(err, &terr) {
		t.Fatalf("expected transition error for early verification, got %v", err)
	}
	// begin on a date with no directive
	_, err = env.Engine.BeginExecution(env.Ctx, "2026-03-03", "tester")
	if !errors.As(err, &terr) {
		t.Fatalf("expected transition error without directive, got %v", err)
	}
}

func TestVerificationScoreBounds(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.RecordVerification(env.Ctx, "2026-03-02", 101, "", "", "tester")
	var verr engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected score bound error, got %v", err)
	}
	_, err = env.Engine.RecordVerification(env.Ctx, "2026-03-02", -1, "", "", "tester")
	if !errors.As(err, &verr) {
		t.Fatalf("expected score bound error, got %v", err)
	}
}

func TestConsultationPromotion(t *testing.T) {
	env := newTestEnv(t)
	pending, err := env.Engine.OpenConsultation(env.Ctx, "2026-03-02", "tester")
	if err != nil {
		t.Fatalf("open consultation: %v", err)
	}
	if pending.State != "pending" {
		t.Fatalf("state = %s", pending.State)
	}
	// a second open returns the same pending directive
	again, err := env.Engine.OpenConsultation(env.Ctx, "2026-03-02", "tester")
	if err != nil || again.ID != pending.ID {
		t.Fatalf("reopen: id=%s err=%v", again.ID, err)
	}
	issued, created, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{
		Date: "2026-03-02", Action: "work", ActorID: "tester",
	})
	if err != nil || !created {
		t.Fatalf("promote: %v", err)
	}
	if issued.ID != pending.ID {
		t.Fatalf("promotion minted a new directive")
	}
	stored, err := env.Engine.Repo.GetDirective(env.Ctx, pending.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.State != "issued" || stored.Action != "work" {
		t.Fatalf("promoted directive not persisted: %+v", stored)
	}
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{Date: "2026-03-02", Action: "work", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	d, err := env.Engine.Cancel(env.Ctx, "2026-03-02", "sick day", "tester")
	if err != nil || d.State != "cancelled" {
		t.Fatalf("cancel: state=%s err=%v", d.State, err)
	}
	// cancelled is terminal
	_, err = env.Engine.Cancel(env.Ctx, "2026-03-02", "again", "tester")
	var terr engine.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected transition error on double cancel, got %v", err)
	}
	// a new directive can be issued for the same date afterwards
	_, created, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{Date: "2026-03-02", Action: "rest", ActorID: "tester"})
	if err != nil || !created {
		t.Fatalf("reissue after cancel: created=%v err=%v", created, err)
	}
}

func TestIssueWithValidationAnnotates(t *testing.T) {
	env := newTestEnv(t)
	d, _, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{
		Date: "2026-03-02", Action: "simplify the home office, remove what is unused", Validate: true, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d.PrincipleScore == nil {
		t.Fatalf("expected principle score annotation")
	}
	if *d.PrincipleScore < 0 || *d.PrincipleScore > 100 {
		t.Fatalf("score out of range: %f", *d.PrincipleScore)
	}
}

func TestIssueRejectsUnknownPeriod(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{
		Date: "2026-03-02", Period: "carnival", Action: "work", ActorID: "tester",
	})
	var verr engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected period validation error, got %v", err)
	}
}

func TestEventsLoggedAcrossLifecycle(t *testing.T) {
	env := newTestEnv(t)
	d, _, err := env.Engine.Issue(env.Ctx, engine.IssueOptions{Date: "2026-03-02", Action: "work", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	_, _ = env.Engine.BeginExecution(env.Ctx, "2026-03-02", "tester")
	_, _ = env.Engine.CompleteExecution(env.Ctx, "2026-03-02", "", "tester")
	events, err := env.Engine.Repo.ListEvents(env.Ctx, "2026-03-02", 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	types := map[string]bool{}
	for _, e := range events {
		if e.EntityID == d.ID {
			types[e.Type] = true
		}
	}
	for _, want := range []string{"directive.issued", "directive.execution.started", "directive.execution.completed"} {
		if !types[want] {
			t.Fatalf("missing event %s in %v", want, types)
		}
	}
}

func TestRepoNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Repo.GetDirective(env.Ctx, "missing")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
