package store

import (
	"context"
	"fmt"

	"github.com/roach88/blockvm/internal/runtime"
)

// Divergence is the first point where a replayed run stops matching the
// recorded one.
type Divergence struct {
	Seq      int64
	Recorded *runtime.Event // nil when the replay produced extra events
	Replayed *runtime.Event // nil when the replay stopped short
}

// String describes the divergence for reports.
func (d Divergence) String() string {
	switch {
	case d.Recorded == nil:
		return fmt.Sprintf("seq %d: replay produced extra %s event for %s", d.Seq, d.Replayed.Kind, d.Replayed.ThreadID)
	case d.Replayed == nil:
		return fmt.Sprintf("seq %d: replay ended before recorded %s event for %s", d.Seq, d.Recorded.Kind, d.Recorded.ThreadID)
	}
	return fmt.Sprintf("seq %d: recorded %s %s/%s, replayed %s %s/%s",
		d.Seq,
		d.Recorded.Kind, d.Recorded.ThreadID, d.Recorded.BlockID,
		d.Replayed.Kind, d.Replayed.ThreadID, d.Replayed.BlockID)
}

// CompareRun checks replayed events against the run stored under runID.
// Both runs must share the run ID for event IDs to be comparable, which
// is what a replay with a fixed run ID generator produces. Returns nil
// when every event matches.
func (s *Store) CompareRun(ctx context.Context, runID string, replayed []runtime.Event) (*Divergence, error) {
	recorded, err := s.ReadEvents(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("compare run: %w", err)
	}

	for i := 0; i < len(recorded) || i < len(replayed); i++ {
		switch {
		case i >= len(recorded):
			return &Divergence{Seq: replayed[i].Seq, Replayed: &replayed[i]}, nil
		case i >= len(replayed):
			return &Divergence{Seq: recorded[i].Seq, Recorded: &recorded[i]}, nil
		case recorded[i].ID != replayed[i].ID:
			return &Divergence{Seq: recorded[i].Seq, Recorded: &recorded[i], Replayed: &replayed[i]}, nil
		}
	}
	return nil, nil
}
