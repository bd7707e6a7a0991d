package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/runtime"
	"github.com/roach88/blockvm/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SessionOptions
	Database string
}

// RunSummary is the outcome of a run.
type RunSummary struct {
	RunID     string                    `json:"run_id"`
	Project   string                    `json:"project"`
	Frames    int64                     `json:"frames"`
	Threads   int                       `json:"threads"`
	Variables map[string]map[string]any `json:"variables"`
	Reports   []Report                  `json:"reports,omitempty"`
}

// String renders the summary for text output.
func (r RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s of %q: %d frames, %d threads running\n", r.RunID, r.Project, r.Frames, r.Threads)
	for _, target := range sortedKeys(r.Variables) {
		vars := r.Variables[target]
		for _, name := range sortedKeys(vars) {
			fmt.Fprintf(&b, "  %s.%s = %s\n", target, name, display(vars[name]))
		}
	}
	for _, rep := range r.Reports {
		kind := "report"
		if rep.Monitor {
			kind = "monitor"
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", kind, rep.BlockID, display(rep.Value))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <project>",
		Short: "Run a project",
		Long: `Load a project and run it frame by frame.

The project is a YAML, JSON or CUE file, or a directory holding a CUE
package. By default the green flag is clicked and frames run at --fps until
interrupted; --frames stops after a fixed count. With --db the run is
recorded to a SQLite database for trace and replay.

--deterministic steps frames back to back on a simulated clock, one frame
interval per frame, so the same project and flags always produce the same
trace. Such runs can be checked with replay.

Examples:
  blockvm run ./game.yaml
  blockvm run ./game.cue --frames 300 --db ./runs.db
  blockvm run ./game.yaml --frames 60 --deterministic --db ./runs.db
  blockvm run ./game.yaml --broadcast start --green-flag=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run to this SQLite database")
	addSessionFlags(cmd, &opts.SessionOptions)

	return cmd
}

// addSessionFlags registers the runtime flags shared by run and replay.
func addSessionFlags(cmd *cobra.Command, opts *SessionOptions) {
	cmd.Flags().IntVar(&opts.FPS, "fps", runtime.DefaultFramerate, "frames per second")
	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "stop after this many frames (0 runs until interrupted)")
	cmd.Flags().DurationVar(&opts.WarpTime, "warp-time", 500*time.Millisecond, "how long a run-without-screen-refresh call may run before yielding")
	cmd.Flags().BoolVar(&opts.Turbo, "turbo", false, "keep stepping after redraw requests")
	cmd.Flags().BoolVar(&opts.Deterministic, "deterministic", false, "step frames on a simulated clock (needs --frames)")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", 0, "cap thread-list passes per frame (deterministic default 10)")
	cmd.Flags().BoolVar(&opts.GreenFlag, "green-flag", true, "click the green flag at start")
	cmd.Flags().StringSliceVar(&opts.Broadcasts, "broadcast", nil, "broadcast these messages at start")
	cmd.Flags().StringSliceVar(&opts.Keys, "key", nil, "press these keys at start")
}

func runProject(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	loaded, err := loadProject(f, path)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	var st *store.Store
	var recorders []runtime.Recorder
	if opts.Database != "" {
		slog.Info("opening database", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		recorders = append(recorders, st.Recorder(ctx))
	}

	s, err := newSession(loaded, opts.SessionOptions, "", recorders...)
	if err != nil {
		return err
	}
	runID := s.rt.RunID()

	if st != nil {
		run := store.Run{ID: runID, Project: loaded.Project.Name, ProjectHash: loaded.Hash}
		if err := st.BeginRun(ctx, run); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	slog.Info("run starting", "run", runID, "project", loaded.Project.Name, "frames", opts.Frames)
	runErr := s.run(ctx)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		// Interrupted runs are still complete recordings.
		runErr = nil
	}
	slog.Info("run stopped", "run", runID, "frames", s.rt.Frame())

	if st != nil {
		// The run context may be cancelled by now; the final writes must
		// still land.
		if err := finishRecording(context.Background(), st, s, runErr); err != nil {
			return WrapExitError(ExitFailure, "failed to record run", err)
		}
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "run failed", runErr)
	}

	return f.Success(RunSummary{
		RunID:     runID,
		Project:   loaded.Project.Name,
		Frames:    s.rt.Frame(),
		Threads:   len(s.rt.Threads()),
		Variables: s.variables(),
		Reports:   s.reports.reports,
	})
}

// finishRecording snapshots the final variables and closes the run row.
func finishRecording(ctx context.Context, st *store.Store, s *session, runErr error) error {
	for _, t := range s.rt.Targets() {
		if !t.IsOriginal() {
			continue
		}
		if err := st.WriteVariables(ctx, s.rt.RunID(), s.rt.Frame(), t.Name(), t.Variables()); err != nil {
			return err
		}
	}
	return st.FinishRun(ctx, s.rt.RunID(), s.rt.Frame(), runErr)
}

// signalContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}

// display renders a plain Go value the way a block would show it.
func display(v any) string {
	val, err := ir.FromGo(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return ir.ToString(val)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
