package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/blockvm/internal/runtime"
	"github.com/roach88/blockvm/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	SessionOptions
	Database string
	RunID    string // optional - defaults to the newest run
}

// ReplayResult holds the outcome of a replay.
type ReplayResult struct {
	RunID         string `json:"run_id"`
	Frames        int64  `json:"frames"`
	Recorded      int64  `json:"recorded_events"`
	Replayed      int    `json:"replayed_events"`
	Deterministic bool   `json:"deterministic"`
	Divergence    string `json:"divergence,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <project>",
		Short: "Re-run a recorded run and verify determinism",
		Long: `Re-run a project on a simulated clock and compare the result with a
recorded run, event by event.

The recorded run must have been made with --deterministic, and replay must
be given the same startup flags (--fps, --green-flag, --broadcast, --key,
--max-passes, --warp-time). The frame count and run ID come from the
recording. The project must not have changed since the run.

Exit codes:
  0 - The replay matches the recording
  1 - The replay diverged
  2 - Command error (database not found, project changed, etc.)

Examples:
  blockvm replay ./game.yaml --db ./runs.db
  blockvm replay ./game.yaml --db ./runs.db --run 0190a5c2-... --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to replay (default: newest)")
	addSessionFlags(cmd, &opts.SessionOptions)

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := resolveRun(ctx, st, opts.RunID)
	if err != nil {
		return err
	}
	if run.Status == store.StatusRunning {
		return NewExitError(ExitCommandError, fmt.Sprintf("run %s never finished", run.ID))
	}

	loaded, err := loadProject(f, path)
	if err != nil {
		return err
	}
	if loaded.Hash != run.ProjectHash {
		return NewExitError(ExitCommandError, fmt.Sprintf("project %s changed since run %s", path, run.ID))
	}

	var replayed []runtime.Event
	collect := runtime.RecorderFunc(func(ev runtime.Event) error {
		replayed = append(replayed, ev)
		return nil
	})

	sessionOpts := opts.SessionOptions
	sessionOpts.Deterministic = true
	sessionOpts.Frames = int(run.Frames)
	s, err := newSession(loaded, sessionOpts, run.ID, collect)
	if err != nil {
		return err
	}
	f.VerboseLog("Replaying run %s: %d frames", run.ID, run.Frames)
	if err := s.run(ctx); err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	div, err := st.CompareRun(ctx, run.ID, replayed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compare runs", err)
	}

	result := ReplayResult{
		RunID:         run.ID,
		Frames:        run.Frames,
		Recorded:      run.LastSeq,
		Replayed:      len(replayed),
		Deterministic: div == nil,
	}
	if div == nil {
		if f.JSON() {
			return f.Success(result)
		}
		return f.Success(fmt.Sprintf("✓ run %s replayed: %d events match over %d frames", run.ID, len(replayed), run.Frames))
	}

	result.Divergence = div.String()
	if f.JSON() {
		if err := f.Failure("E_NONDETERMINISTIC", "replay diverged", result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "✗ run %s diverged\n  %s\n", run.ID, div)
	}
	return NewExitError(ExitFailure, "replay diverged")
}
