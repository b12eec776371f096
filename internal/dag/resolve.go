// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"slices"

	"github.com/pluttan/volumes/pkg/taskgraph"
)

type (
	// MissingDependency is a dependency name that no task in the graph defines.
	MissingDependency struct {
		Task       string
		Dependency string
	}

	resolver struct {
		graph   *taskgraph.Graph
		emitted map[string]bool
		stack   []string
		order   []string
	}
)

// Resolve returns the execution order for target: every dependency, in
// declaration order and depth first, precedes the task that lists it, and no
// task appears twice. Dependencies the graph does not define are assumed to be
// satisfied externally and skipped. An unknown target yields a
// *taskgraph.UnknownTargetError; a dependency cycle yields a *CycleError.
func Resolve(graph *taskgraph.Graph, target string) ([]string, error) {
	if _, err := graph.Lookup(target); err != nil {
		return nil, err
	}
	r := &resolver{graph: graph, emitted: make(map[string]bool)}
	if err := r.visit(target); err != nil {
		return nil, err
	}
	return r.order, nil
}

func (r *resolver) visit(name string) error {
	if r.emitted[name] {
		return nil
	}
	if i := slices.Index(r.stack, name); i >= 0 {
		cycle := append(slices.Clone(r.stack[i:]), name)
		return &CycleError{Cycle: cycle}
	}
	task, ok := r.graph.Get(name)
	if !ok {
		return nil
	}

	r.stack = append(r.stack, name)
	for _, dep := range task.Depends {
		if err := r.visit(dep); err != nil {
			return err
		}
	}
	r.stack = r.stack[:len(r.stack)-1]

	r.emitted[name] = true
	r.order = append(r.order, name)
	return nil
}

// Validate checks the whole graph for cycles, including tasks no target
// would reach, and reports dependencies that name no task.
func Validate(graph *taskgraph.Graph) ([]MissingDependency, error) {
	g := New()
	var missing []MissingDependency
	for _, task := range graph.Tasks() {
		g.AddNode(task.Name)
		for _, dep := range task.Depends {
			if !graph.Has(dep) {
				missing = append(missing, MissingDependency{Task: task.Name, Dependency: dep})
				continue
			}
			g.AddEdge(dep, task.Name)
		}
	}
	if _, err := g.TopologicalSort(); err != nil {
		return missing, err
	}
	return missing, nil
}

// CountSteps totals the steps of the named tasks.
func CountSteps(graph *taskgraph.Graph, order []string) int {
	total := 0
	for _, name := range order {
		if task, ok := graph.Get(name); ok {
			total += len(task.Steps)
		}
	}
	return total
}
