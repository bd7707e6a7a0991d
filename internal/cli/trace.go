package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/runtime"
	"github.com/roach88/blockvm/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string   // optional - defaults to the newest run
	Kinds    []string // optional - filter to event kinds
	Thread   string   // optional - filter to one thread
	Block    string   // optional - filter to one block
	From     int64    // optional - first frame, inclusive
	To       int64    // optional - last frame, inclusive
	List     bool
}

// TraceEvent represents a single event in the trace timeline.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Frame    int64  `json:"frame"`
	Kind     string `json:"kind"`
	ThreadID string `json:"thread_id"`
	BlockID  string `json:"block_id,omitempty"`
	Value    any    `json:"value,omitempty"`
	Detail   string `json:"detail,omitempty"`
	ID       string `json:"id"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      store.Run    `json:"run"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByKind      map[string]int `json:"by_kind"`
	Threads     int            `json:"threads"`
	Errors      int            `json:"errors"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded events of a run",
		Long: `Show the timeline of a recorded run.

Events are listed in sequence order: thread starts, hats that fired,
procedure calls and returns, reported values, monitor updates, threads
finishing and thread errors.

Examples:
  blockvm trace --db ./runs.db --list
  blockvm trace --db ./runs.db
  blockvm trace --db ./runs.db --run 0190a5c2-... --kind error --kind status
  blockvm trace --db ./runs.db --from-frame 3 --to-frame 5
  blockvm trace --db ./runs.db --thread 'Cat&flag' --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to show (default: newest)")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "filter to event kinds (repeatable)")
	cmd.Flags().StringVar(&opts.Thread, "thread", "", "filter to one thread")
	cmd.Flags().StringVar(&opts.Block, "block", "", "filter to one block")
	cmd.Flags().Int64Var(&opts.From, "from-frame", 0, "first frame to show")
	cmd.Flags().Int64Var(&opts.To, "to-frame", 0, "last frame to show")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list recorded runs instead")

	return cmd
}

// openExistingStore opens a database that must already exist; Open would
// otherwise create an empty one.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// resolveRun reads the run named by id, or the newest run when id is
// empty.
func resolveRun(ctx context.Context, st *store.Store, id string) (store.Run, error) {
	if id == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return store.Run{}, WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if len(runs) == 0 {
			return store.Run{}, NewExitError(ExitCommandError, "database has no runs")
		}
		return runs[0], nil
	}
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, NewExitError(ExitCommandError, fmt.Sprintf("run %q not found", id))
	}
	if err != nil {
		return store.Run{}, WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return run, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.List {
		return listRuns(ctx, f, st)
	}

	run, err := resolveRun(ctx, st, opts.RunID)
	if err != nil {
		return err
	}

	if opts.From < 0 || opts.To < 0 || (opts.To > 0 && opts.To < opts.From) {
		return NewExitError(ExitCommandError, "invalid frame range")
	}
	events, err := st.QueryEvents(ctx, run.ID, store.EventFilter{
		Kinds:     opts.Kinds,
		ThreadID:  opts.Thread,
		BlockID:   opts.Block,
		FromFrame: opts.From,
		ToFrame:   opts.To,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Run:      run,
		Timeline: []TraceEvent{},
		Stats:    TraceStats{ByKind: make(map[string]int)},
	}
	threads := make(map[string]bool)
	for _, ev := range events {
		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:      ev.Seq,
			Frame:    ev.Frame,
			Kind:     ev.Kind,
			ThreadID: ev.ThreadID,
			BlockID:  ev.BlockID,
			Value:    ir.ToGo(ev.Value),
			Detail:   ev.Detail,
			ID:       ev.ID,
		})
		result.Stats.ByKind[ev.Kind]++
		threads[ev.ThreadID] = true
		if ev.Kind == runtime.EventError {
			result.Stats.Errors++
		}
	}
	result.Stats.TotalEvents = len(result.Timeline)
	result.Stats.Threads = len(threads)

	if f.JSON() {
		return f.Success(result)
	}
	return f.Success(formatTrace(result))
}

func formatTrace(r TraceResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s, %s, %d frames)\n", r.Run.ID, r.Run.Project, r.Run.Status, r.Run.Frames)
	if r.Run.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", r.Run.Error)
	}
	b.WriteString("\n")

	if len(r.Timeline) == 0 {
		b.WriteString("No events.\n")
	}
	for _, ev := range r.Timeline {
		fmt.Fprintf(&b, "  [%d] frame %d %-15s %s", ev.Seq, ev.Frame, ev.Kind, ev.ThreadID)
		if ev.BlockID != "" {
			fmt.Fprintf(&b, " %s", ev.BlockID)
		}
		if ev.Value != nil {
			fmt.Fprintf(&b, " = %s", display(ev.Value))
		}
		if ev.Detail != "" {
			fmt.Fprintf(&b, " (%s)", ev.Detail)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Events: %d", r.Stats.TotalEvents)
	for _, kind := range sortedKeys(r.Stats.ByKind) {
		fmt.Fprintf(&b, ", %s %d", kind, r.Stats.ByKind[kind])
	}
	fmt.Fprintf(&b, "\nThreads: %d, errors: %d", r.Stats.Threads, r.Stats.Errors)
	return b.String()
}

func listRuns(ctx context.Context, f *OutputFormatter, st *store.Store) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if f.JSON() {
		return f.Success(runs)
	}
	if len(runs) == 0 {
		return f.Success("No runs recorded.")
	}
	var b strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&b, "%s  %-10s %-8s %6d frames  %6d events\n", r.ID, r.Project, r.Status, r.Frames, r.LastSeq)
	}
	return f.Success(strings.TrimSuffix(b.String(), "\n"))
}
