package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/runtime"
)

// ReadRun retrieves a run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project, project_hash, engine_version, format_version, status, frames, last_seq, error
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns every run, newest ID first. Run IDs are UUIDv7, so
// this is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project, project_hash, engine_version, format_version, status, frames, last_seq, error
		FROM runs
		ORDER BY id COLLATE BINARY DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

const eventColumns = "id, run_id, seq, frame, kind, thread_id, block_id, value, detail"

// ReadEvents returns a run's events in sequence order.
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]runtime.Event, error) {
	return s.QueryEvents(ctx, runID, EventFilter{})
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]runtime.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []runtime.Event{}
	for rows.Next() {
		var ev runtime.Event
		var value sql.NullString
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Seq, &ev.Frame, &ev.Kind, &ev.ThreadID, &ev.BlockID, &value, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.Value, err = unmarshalValue(value); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadVariables returns the latest snapshot of every target's variables:
// target name to variable name to value.
func (s *Store) ReadVariables(ctx context.Context, runID string) (map[string]map[string]ir.Value, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.target, v.name, v.value
		FROM variables v
		WHERE v.run_id = ? AND v.frame = (
			SELECT MAX(frame) FROM variables WHERE run_id = v.run_id AND target = v.target
		)
		ORDER BY v.target COLLATE BINARY ASC, v.name COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query variables: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]ir.Value)
	for rows.Next() {
		var target, name, data string
		if err := rows.Scan(&target, &name, &data); err != nil {
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		v, err := ir.UnmarshalValue([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("variable %s.%s: %w", target, name, err)
		}
		if out[target] == nil {
			out[target] = make(map[string]ir.Value)
		}
		out[target][name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variables: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.Project,
		&run.ProjectHash,
		&run.EngineVersion,
		&run.FormatVersion,
		&run.Status,
		&run.Frames,
		&run.LastSeq,
		&run.Error,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}
