package store

import (
	"context"
	"fmt"

	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/runtime"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Run is one recorded execution of a project.
type Run struct {
	ID            string `json:"id"`
	Project       string `json:"project"`
	ProjectHash   string `json:"project_hash"`
	EngineVersion string `json:"engine_version"`
	FormatVersion string `json:"format_version"`
	Status        string `json:"status"`
	Frames        int64  `json:"frames"`
	LastSeq       int64  `json:"last_seq"`
	Error         string `json:"error,omitempty"`
}

// BeginRun records the start of a run.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - beginning the same run
// twice keeps the first row.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	if run.FormatVersion == "" {
		run.FormatVersion = ir.FormatVersion
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, project, project_hash, engine_version, format_version, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Project,
		run.ProjectHash,
		run.EngineVersion,
		run.FormatVersion,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun marks a run finished, or failed when runErr is non-nil, and
// records how many frames it stepped. last_seq is taken from the events
// already written.
func (s *Store) FinishRun(ctx context.Context, runID string, frames int64, runErr error) error {
	status, msg := StatusFinished, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, frames = ?, error = ?,
		    last_seq = COALESCE((SELECT MAX(seq) FROM events WHERE run_id = ?), 0)
		WHERE id = ?
	`, status, frames, msg, runID, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: run %q not found", runID)
	}
	return nil
}

// WriteEvent inserts a trace event.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - the ID is a content
// hash, so a duplicate write carries the same data.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, ev runtime.Event) error {
	value, err := marshalValue(ev.Value)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, run_id, seq, frame, kind, thread_id, block_id, value, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.RunID,
		ev.Seq,
		ev.Frame,
		ev.Kind,
		ev.ThreadID,
		ev.BlockID,
		value,
		ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteVariables records a snapshot of one target's variables at a frame.
// Writing the same frame again replaces the values.
func (s *Store) WriteVariables(ctx context.Context, runID string, frame int64, target string, vars map[string]ir.Value) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write variables: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for name, v := range vars {
		value, err := marshalValue(v)
		if err != nil {
			return fmt.Errorf("write variables: %s: %w", name, err)
		}
		if !value.Valid {
			value.String, value.Valid = "null", true
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO variables (run_id, frame, target, name, value)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(run_id, frame, target, name) DO UPDATE SET value = excluded.value
		`, runID, frame, target, name, value.String)
		if err != nil {
			return fmt.Errorf("write variables: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write variables: commit: %w", err)
	}
	return nil
}

// Recorder returns a runtime.Recorder writing every event of a run to the
// store.
func (s *Store) Recorder(ctx context.Context) runtime.Recorder {
	return runtime.RecorderFunc(func(ev runtime.Event) error {
		return s.WriteEvent(ctx, ev)
	})
}
