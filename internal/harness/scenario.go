package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario drives a project and checks the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Project is the project file or CUE package to run. Relative paths
	// are resolved against the scenario file.
	Project string `yaml:"project"`

	// RunID is the fixed run ID stamped on every event.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// FrameMS is how far the clock moves before each frame.
	// If zero, defaults to one frame at 30fps.
	FrameMS int `yaml:"frame_ms,omitempty"`

	// MaxPasses caps thread-list passes per frame. The manual clock does
	// not move during a frame, so this is what ends a busy frame.
	// If zero, defaults to 10.
	MaxPasses int `yaml:"max_passes,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	GreenFlag bool       `yaml:"green_flag,omitempty"`
	Key       string     `yaml:"key,omitempty"`
	Broadcast string     `yaml:"broadcast,omitempty"`
	Click     *ClickStep `yaml:"click,omitempty"`
	Frames    int        `yaml:"frames,omitempty"`
	Advance   string     `yaml:"advance,omitempty"`
	StopAll   bool       `yaml:"stop_all,omitempty"`
	Answer    *string    `yaml:"answer,omitempty"`
}

// ClickStep toggles the script whose top block is Block on Target.
type ClickStep struct {
	Target string `yaml:"target"`
	Block  string `yaml:"block"`
}

// Assertion checks the state after all steps ran.
type Assertion struct {
	// Type specifies the assertion type:
	// - "variable": Target's variable Name equals Equals
	// - "report": a stack click or monitor of Block reported Equals
	// - "threads": exactly Count threads are still running
	// - "saying": Target's speech bubble shows Equals
	// - "trace_contains": an event of Kind (and Thread/Block if set) occurred
	// - "trace_count": exactly Count events of Kind occurred
	Type string `yaml:"type"`

	Target string `yaml:"target,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Block  string `yaml:"block,omitempty"`
	Thread string `yaml:"thread,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
	Equals any    `yaml:"equals,omitempty"`
	Count  *int   `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertVariable      = "variable"
	AssertReport        = "report"
	AssertThreads       = "threads"
	AssertSaying        = "saying"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// project path against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Project != "" && !filepath.IsAbs(scenario.Project) {
		scenario.Project = filepath.Join(filepath.Dir(path), scenario.Project)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Project == "" {
		return fmt.Errorf("project is required")
	}
	if _, err := os.Stat(s.Project); os.IsNotExist(err) {
		return fmt.Errorf("project not found: %s", s.Project)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.FrameMS < 0 {
		return fmt.Errorf("frame_ms must be non-negative")
	}
	if s.MaxPasses < 0 {
		return fmt.Errorf("max_passes must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	set := 0
	if step.GreenFlag {
		set++
	}
	if step.Key != "" {
		set++
	}
	if step.Broadcast != "" {
		set++
	}
	if step.Click != nil {
		set++
		if step.Click.Target == "" || step.Click.Block == "" {
			return fmt.Errorf("click needs target and block")
		}
	}
	if step.Frames != 0 {
		set++
		if step.Frames < 0 {
			return fmt.Errorf("frames must be positive")
		}
	}
	if step.Advance != "" {
		set++
		if d, err := time.ParseDuration(step.Advance); err != nil || d < 0 {
			return fmt.Errorf("advance: invalid duration %q", step.Advance)
		}
	}
	if step.StopAll {
		set++
	}
	if step.Answer != nil {
		set++
	}

	switch set {
	case 0:
		return fmt.Errorf("empty step")
	case 1:
		return nil
	default:
		return fmt.Errorf("a step sets exactly one action, got %d", set)
	}
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertVariable:
		if a.Target == "" || a.Name == "" {
			return fmt.Errorf("variable needs target and name")
		}
		if a.Equals == nil {
			return fmt.Errorf("variable needs equals")
		}
	case AssertReport:
		if a.Block == "" {
			return fmt.Errorf("report needs block")
		}
	case AssertThreads:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("threads needs a non-negative count")
		}
	case AssertSaying:
		if a.Target == "" {
			return fmt.Errorf("saying needs target")
		}
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("trace_contains needs kind")
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("trace_count needs kind")
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("trace_count needs a non-negative count")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
