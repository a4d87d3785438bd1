package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/adapters/sqlite"
	"github.com/reoring/formskema/batch"
)

func setupDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 applied migration, got %d", n)
	}
}

func TestLedger_RecordsRun(t *testing.T) {
	ctx := context.Background()
	ledger := sqlite.NewLedger(setupDB(t))

	run, err := ledger.StartRun(ctx, "LD-1", formskema.Strict)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}

	valid := formskema.Valid(formskema.NewRecord("a", formskema.NewMap(0)), nil)
	valid.Origin = "in/a.html"
	valid.Duration = 12 * time.Millisecond
	invalid := formskema.Invalid("b", formskema.Issues{
		formskema.Root().Field("registrant").Issue(formskema.CodeMissingRequired, "missing"),
		formskema.Root().Field("state").Issue(formskema.CodePattern, "pattern"),
		formskema.Root().Field("zip").Issue(formskema.CodePattern, "pattern"),
	})
	for _, out := range []formskema.Outcome{valid, invalid, invalid} {
		if err := run.Put(ctx, out); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if err := run.Finish(ctx, batch.Tally{Valid: 1, Invalid: 1, Skipped: 2}); err != nil {
		t.Fatalf("finish: %v", err)
	}

	runs, err := ledger.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("want 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.ID != run.ID || r.SchemaTitle != "LD-1" || r.Mode != "strict" || r.FinishedAt == nil {
		t.Fatalf("unexpected run: %+v", r)
	}
	if r.Valid != 1 || r.Invalid != 1 || r.Skipped != 2 {
		t.Fatalf("unexpected run counts: %+v", r)
	}

	outs, err := ledger.Outcomes(ctx, run.ID)
	if err != nil {
		t.Fatalf("outcomes: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("want 2 outcome rows (repeat replaced), got %d", len(outs))
	}
	if outs[0].DocumentID != "a" || outs[0].Status != "valid" || outs[0].Origin != "in/a.html" || outs[0].Duration != 12*time.Millisecond {
		t.Fatalf("unexpected first row: %+v", outs[0])
	}
	b := outs[1]
	if b.Status != "invalid" || b.IssueCount != 3 || len(b.Codes) != 2 || b.Codes[0] != formskema.CodeMissingRequired {
		t.Fatalf("unexpected second row: %+v", b)
	}

	counts, err := ledger.CountByStatus(ctx, run.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["valid"] != 1 || counts["invalid"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestLedger_FinishUnknownRun(t *testing.T) {
	ctx := context.Background()
	ledger := sqlite.NewLedger(setupDB(t))
	run, err := ledger.StartRun(ctx, "x", formskema.Lenient)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	bogus := *run
	bogus.ID = "missing"
	if err := bogus.Finish(ctx, batch.Tally{}); err == nil {
		t.Fatalf("finishing an unknown run must fail")
	}
}

func TestLedger_AsBatchSink(t *testing.T) {
	ctx := context.Background()
	ledger := sqlite.NewLedger(setupDB(t))
	run, err := ledger.StartRun(ctx, "x", formskema.Strict)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	var seen int
	sink := batch.Tee(run, sinkFunc(func(formskema.Outcome) { seen++ }))
	if err := sink.Put(ctx, formskema.Invalid("z", formskema.Issues{formskema.Root().Issue(formskema.CodeParseError, "bad")})); err != nil {
		t.Fatalf("tee put: %v", err)
	}
	outs, _ := ledger.Outcomes(ctx, run.ID)
	if len(outs) != 1 || seen != 1 {
		t.Fatalf("tee should reach both sinks: rows=%d seen=%d", len(outs), seen)
	}
}

type sinkFunc func(formskema.Outcome)

func (f sinkFunc) Put(_ context.Context, out formskema.Outcome) error {
	f(out)
	return nil
}
