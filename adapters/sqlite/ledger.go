package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/batch"
)

// RunInfo is one row of the runs table.
type RunInfo struct {
	ID          string
	SchemaTitle string
	Mode        string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Valid       int
	Invalid     int
	Skipped     int
	SinkErrors  int
}

// OutcomeRow is one row of the outcomes table.
type OutcomeRow struct {
	RunID        string
	DocumentID   string
	Origin       string
	Status       string
	IssueCount   int
	WarningCount int
	Codes        []string
	Duration     time.Duration
	RecordedAt   time.Time
}

// Ledger records batch runs and the outcome of every document they saw.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// NewLedger creates a ledger over a migrated database.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db.DB, now: time.Now}
}

// Run is a ledger entry for one batch run. It implements batch.Sink.
type Run struct {
	ID     string
	ledger *Ledger
}

var _ batch.Sink = (*Run)(nil)

// StartRun opens a run and returns the sink that records into it.
func (l *Ledger) StartRun(ctx context.Context, schemaTitle string, mode formskema.Mode) (*Run, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, schema_title, mode, started_at)
		VALUES (?, ?, ?, ?)
	`, id, schemaTitle, mode.String(), l.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return &Run{ID: id, ledger: l}, nil
}

// Put records one outcome. A document seen twice in the same run keeps the
// latest outcome.
func (r *Run) Put(ctx context.Context, out formskema.Outcome) error {
	_, err := r.ledger.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO outcomes
			(run_id, document_id, origin, status, issue_count, warning_count, codes, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, out.DocumentID, out.Origin, out.Status(), len(out.Issues), len(out.Warnings),
		strings.Join(out.Issues.Codes(), ","), out.Duration.Milliseconds(), r.ledger.now().UTC())
	if err != nil {
		return fmt.Errorf("record outcome %q: %w", out.DocumentID, err)
	}
	return nil
}

// Finish closes the run with its tally.
func (r *Run) Finish(ctx context.Context, t batch.Tally) error {
	res, err := r.ledger.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, valid = ?, invalid = ?, skipped = ?, sink_errors = ?
		WHERE id = ?
	`, r.ledger.now().UTC(), t.Valid, t.Invalid, t.Skipped, t.SinkErrors, r.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: run %s not found", r.ID)
	}
	return nil
}

// Runs lists the most recent runs first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, schema_title, mode, started_at, finished_at, valid, invalid, skipped, sink_errors
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var finished sql.NullTime
		if err := rows.Scan(
			&r.ID,
			&r.SchemaTitle,
			&r.Mode,
			&r.StartedAt,
			&finished,
			&r.Valid,
			&r.Invalid,
			&r.Skipped,
			&r.SinkErrors,
		); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes lists the outcomes recorded for a run, ordered by document id.
func (l *Ledger) Outcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, document_id, origin, status, issue_count, warning_count, codes, duration_ms, recorded_at
		FROM outcomes
		WHERE run_id = ?
		ORDER BY document_id, origin
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var o OutcomeRow
		var codes string
		var ms int64
		if err := rows.Scan(
			&o.RunID,
			&o.DocumentID,
			&o.Origin,
			&o.Status,
			&o.IssueCount,
			&o.WarningCount,
			&codes,
			&ms,
			&o.RecordedAt,
		); err != nil {
			return nil, err
		}
		if codes != "" {
			o.Codes = strings.Split(codes, ",")
		}
		o.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountByStatus counts the outcomes of a run per status.
func (l *Ledger) CountByStatus(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM outcomes WHERE run_id = ? GROUP BY status
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
