package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/blockvm/internal/runtime"
)

// EventFilter selects events of one run. Zero fields match everything.
type EventFilter struct {
	Kinds     []string
	ThreadID  string
	BlockID   string
	FromFrame int64 // inclusive; zero means from the start
	ToFrame   int64 // inclusive; zero means to the end
}

// predicate is one parameterized WHERE fragment.
type predicate struct {
	sql    string
	params []any
}

// compile converts the filter to a parameterized query.
//
// All values are parameterized, never interpolated. Every query orders by
// sequence with the event ID as a binary-collated tiebreaker, so results
// are deterministic.
func (f EventFilter) compile(runID string) (string, []any) {
	preds := []predicate{{sql: "run_id = ?", params: []any{runID}}}

	if len(f.Kinds) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(f.Kinds)), ", ")
		params := make([]any, len(f.Kinds))
		for i, k := range f.Kinds {
			params[i] = k
		}
		preds = append(preds, predicate{sql: "kind IN (" + marks + ")", params: params})
	}
	if f.ThreadID != "" {
		preds = append(preds, predicate{sql: "thread_id = ?", params: []any{f.ThreadID}})
	}
	if f.BlockID != "" {
		preds = append(preds, predicate{sql: "block_id = ?", params: []any{f.BlockID}})
	}
	if f.FromFrame > 0 {
		preds = append(preds, predicate{sql: "frame >= ?", params: []any{f.FromFrame}})
	}
	if f.ToFrame > 0 {
		preds = append(preds, predicate{sql: "frame <= ?", params: []any{f.ToFrame}})
	}

	parts := make([]string, len(preds))
	var params []any
	for i, p := range preds {
		parts[i] = p.sql
		params = append(params, p.params...)
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY seq ASC, id COLLATE BINARY ASC`,
		eventColumns, strings.Join(parts, " AND "))
	return query, params
}

// QueryEvents returns the events of a run matching the filter, in
// sequence order.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryEvents(ctx context.Context, runID string, f EventFilter) ([]runtime.Event, error) {
	query, params := f.compile(runID)
	return s.queryEvents(ctx, query, params...)
}
