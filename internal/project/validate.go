package project

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/blockvm/internal/ir"
)

// Validate checks a project's targets and block graphs and returns every
// problem found, in target then block order. An empty result means the
// runtime can load the project.
func Validate(p ir.Project) []ValidationError {
	if len(p.Targets) == 0 {
		return []ValidationError{{Code: ErrNoTargets, Message: "project has no targets"}}
	}

	var errs []ValidationError
	names := make(map[string]bool, len(p.Targets))
	stages := 0
	for _, t := range p.Targets {
		switch {
		case t.Name == "":
			errs = append(errs, ValidationError{Code: ErrTargetName, Message: "target name is required"})
		case names[t.Name]:
			errs = append(errs, ValidationError{Code: ErrTargetName, Target: t.Name, Message: "duplicate target name"})
		}
		names[t.Name] = true
		if t.IsStage {
			stages++
		}
		errs = append(errs, validateTarget(t)...)
	}
	if stages > 1 {
		errs = append(errs, ValidationError{Code: ErrMultipleStages, Message: fmt.Sprintf("%d targets are marked as the stage", stages)})
	}
	return errs
}

type graph struct {
	target string
	order  []string
	byID   map[string]*ir.Block
	errs   []ValidationError
}

func (g *graph) fail(code, block, format string, args ...any) {
	g.errs = append(g.errs, ValidationError{
		Code:    code,
		Target:  g.target,
		Block:   block,
		Message: fmt.Sprintf(format, args...),
	})
}

func validateTarget(t ir.TargetSpec) []ValidationError {
	g := &graph{target: t.Name, byID: make(map[string]*ir.Block, len(t.Blocks))}
	for i := range t.Blocks {
		b := &t.Blocks[i]
		if b.ID == "" {
			g.fail(ErrDuplicateBlock, "", "block %d has no id", i)
			continue
		}
		if _, dup := g.byID[b.ID]; dup {
			g.fail(ErrDuplicateBlock, b.ID, "duplicate block id")
			continue
		}
		if b.Opcode == "" {
			g.fail(ErrEmptyOpcode, b.ID, "opcode is required")
		}
		g.byID[b.ID] = b
		g.order = append(g.order, b.ID)
	}

	g.checkRefs()
	g.checkNextCycles()
	g.checkInputCycles()

	for _, id := range t.Monitors {
		if _, ok := g.byID[id]; !ok {
			g.fail(ErrMonitorRef, id, "monitored block not found")
		}
	}
	return g.errs
}

func (g *graph) checkRefs() {
	for _, id := range g.order {
		b := g.byID[id]
		if b.Next != "" && g.byID[b.Next] == nil {
			g.fail(ErrDanglingRef, id, "next block %q not found", b.Next)
		}
		if b.Parent != "" && g.byID[b.Parent] == nil {
			g.fail(ErrDanglingRef, id, "parent block %q not found", b.Parent)
		}
		for _, in := range b.Inputs {
			if in.HasBlock() && g.byID[in.Block] == nil {
				g.fail(ErrDanglingRef, id, "input %s: block %q not found", in.Name, in.Block)
			}
		}
		if b.Opcode == "procedures_definition" {
			in, ok := b.Inputs.Get("custom_block")
			if !ok || !in.HasBlock() {
				g.fail(ErrMissingPrototype, id, "definition has no custom_block prototype")
			}
		}
	}
}

// checkNextCycles reports each next loop once, at the block where the
// walk first re-entered it.
func (g *graph) checkNextCycles() {
	const (
		unseen = iota
		onPath
		finished
	)
	state := make(map[string]int, len(g.order))
	for _, start := range g.order {
		var path []string
		id := start
		for id != "" && g.byID[id] != nil && state[id] == unseen {
			state[id] = onPath
			path = append(path, id)
			id = g.byID[id].Next
		}
		if state[id] == onPath {
			at := slices.Index(path, id)
			loop := append(append([]string(nil), path[at:]...), id)
			g.fail(ErrNextCycle, id, "next chain loops: %s", strings.Join(loop, " -> "))
		}
		for _, p := range path {
			state[p] = finished
		}
	}
}

type edge struct {
	to    string
	input bool
}

func (g *graph) edges(id string) []edge {
	b := g.byID[id]
	var out []edge
	for _, in := range b.Inputs {
		if in.HasBlock() && g.byID[in.Block] != nil {
			out = append(out, edge{to: in.Block, input: true})
		}
	}
	if b.Next != "" && g.byID[b.Next] != nil {
		out = append(out, edge{to: b.Next})
	}
	return out
}

// checkInputCycles finds blocks that reach themselves through a path
// using at least one input edge. Pure next loops are reported by
// checkNextCycles.
func (g *graph) checkInputCycles() {
	const (
		unseen = iota
		onStack
		finished
	)
	state := make(map[string]int, len(g.order))
	var stack []string
	var via []bool // via[i]: stack[i] was entered through an input edge

	var visit func(id string, input bool)
	visit = func(id string, input bool) {
		state[id] = onStack
		stack = append(stack, id)
		via = append(via, input)
		for _, e := range g.edges(id) {
			switch state[e.to] {
			case unseen:
				visit(e.to, e.input)
			case onStack:
				at := slices.Index(stack, e.to)
				usesInput := e.input
				for _, in := range via[at+1:] {
					usesInput = usesInput || in
				}
				if usesInput {
					loop := append(append([]string(nil), stack[at:]...), e.to)
					g.fail(ErrInputCycle, e.to, "block reaches itself through its inputs: %s", strings.Join(loop, " -> "))
				}
			}
		}
		stack = stack[:len(stack)-1]
		via = via[:len(via)-1]
		state[id] = finished
	}
	for _, id := range g.order {
		if state[id] == unseen {
			visit(id, false)
		}
	}
}
