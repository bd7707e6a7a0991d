// Package harness runs scenario files against the block runtime.
//
// A scenario names a project, drives it with a list of steps, and checks
// the outcome with assertions. Every scenario runs on a manual clock with
// a fixed run ID and records into a fresh in-memory store, so the same
// scenario always produces byte-identical traces.
//
// # Scenario Format
//
//	name: counter
//	description: "green flag counts up"
//	project: ../projects/counter.yaml
//	run_id: counter-run
//	frame_ms: 33
//	max_passes: 10
//	steps:
//	  - green_flag: true
//	  - frames: 5
//	  - key: space
//	  - broadcast: go
//	  - click: { target: Cat, block: top }
//	  - advance: 1s
//	  - answer: "Ada"
//	  - stop_all: true
//	assertions:
//	  - type: variable
//	    target: Stage
//	    name: score
//	    equals: 4
//	  - type: report
//	    block: top
//	    equals: 5
//	  - type: threads
//	    count: 1
//	  - type: saying
//	    target: Cat
//	    equals: "Hello!"
//	  - type: trace_contains
//	    kind: hat
//	    thread: "Cat&flag"
//	  - type: trace_count
//	    kind: error
//	    count: 0
//
// Requests (green_flag, key, broadcast, click, answer, stop_all) are
// applied at the start of the next frame, as they are when the runtime
// runs on its own ticker. An answer settles the oldest question asked by
// sensing_askandwait. Each frame advances the clock by frame_ms before
// stepping.
//
// # Golden Traces
//
// RunWithGolden compares the canonical JSON of a scenario's trace against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
