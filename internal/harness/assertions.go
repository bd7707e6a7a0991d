package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/blockvm/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] frame %d %s %s", ev.Seq, ev.Frame, ev.Kind, ev.ThreadID)
			if ev.BlockID != "" {
				fmt.Fprintf(&buf, " %s", ev.BlockID)
			}
			if ev.Value != nil {
				fmt.Fprintf(&buf, " = %s", ir.ToString(ev.Value))
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// EvaluateAssertions runs all assertions against a result.
// Returns a slice of error messages (empty if all pass).
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertVariable:
		return assertVariable(result, a)
	case AssertReport:
		return assertReport(result, a)
	case AssertThreads:
		if result.Threads != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d running threads", *a.Count),
				Actual:   fmt.Sprintf("%d running threads", result.Threads),
			}
		}
		return nil
	case AssertSaying:
		want := ""
		if a.Equals != nil {
			want = fmt.Sprint(a.Equals)
		}
		if got := result.Saying[a.Target]; got != want {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s says %q", a.Target, want),
				Actual:   fmt.Sprintf("%s says %q", a.Target, got),
			}
		}
		return nil
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// expected converts the YAML value of an assertion to a Value.
func expected(a Assertion) (ir.Value, error) {
	v, err := ir.FromGo(a.Equals)
	if err != nil {
		return nil, fmt.Errorf("equals: %w", err)
	}
	return v, nil
}

// sameValue compares with block semantics: numeric when both sides are
// numbers, case-insensitive otherwise.
func sameValue(want, got ir.Value) bool {
	if got == nil {
		return false
	}
	return ir.Compare(want, got) == 0
}

func assertVariable(result *Result, a Assertion) error {
	want, err := expected(a)
	if err != nil {
		return err
	}
	vars, ok := result.Variables[a.Target]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("target %s", a.Target),
			Actual:   fmt.Sprintf("targets %s", strings.Join(sortedKeys(result.Variables), ", ")),
		}
	}
	got, ok := vars[a.Name]
	if !ok || !sameValue(want, got) {
		actual := "no such variable"
		if ok {
			actual = ir.ToString(got)
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s = %s", a.Target, a.Name, ir.ToString(want)),
			Actual:   actual,
		}
	}
	return nil
}

// assertReport passes when any report of the block matches. Without
// equals, any report of the block passes.
func assertReport(result *Result, a Assertion) error {
	var want ir.Value
	if a.Equals != nil {
		v, err := expected(a)
		if err != nil {
			return err
		}
		want = v
	}

	var seen []string
	for _, r := range result.Reports {
		if r.BlockID != a.Block {
			continue
		}
		if want == nil || sameValue(want, r.Value) {
			return nil
		}
		seen = append(seen, ir.ToString(r.Value))
	}

	expectedMsg := fmt.Sprintf("report from %s", a.Block)
	if want != nil {
		expectedMsg += " = " + ir.ToString(want)
	}
	actual := "no reports"
	if len(seen) > 0 {
		actual = "reported " + strings.Join(seen, ", ")
	}
	return &AssertionError{Type: a.Type, Expected: expectedMsg, Actual: actual}
}

func matches(ev TraceEvent, a Assertion) bool {
	if ev.Kind != a.Kind {
		return false
	}
	if a.Thread != "" && ev.ThreadID != a.Thread {
		return false
	}
	if a.Block != "" && ev.BlockID != a.Block {
		return false
	}
	return true
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if matches(ev, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matches(ev, a) {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s %d times", describe(a), *a.Count),
			Actual:   fmt.Sprintf("%d times", count),
			Trace:    trace,
		}
	}
	return nil
}

func describe(a Assertion) string {
	s := a.Kind + " event"
	if a.Thread != "" {
		s += " on thread " + a.Thread
	}
	if a.Block != "" {
		s += " at block " + a.Block
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
