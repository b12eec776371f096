// SPDX-License-Identifier: MPL-2.0

package taskgraph

import "slices"

// Source kinds identify which front-end produced a Graph.
const (
	// SourceRecipe marks graphs parsed from Makefile-style recipes.
	SourceRecipe SourceKind = "make"
	// SourceTable marks graphs loaded from structured task tables.
	SourceTable SourceKind = "task"
	// SourceScript marks graphs parsed from volumes shell scripts.
	SourceScript SourceKind = "script"
)

type (
	// SourceKind names the document format a Graph was parsed from.
	SourceKind string

	// Graph maps task names to tasks. Declaration order is preserved for listing.
	Graph struct {
		// Path is the document the graph was parsed from.
		Path string
		// Kind is the front-end that produced the graph.
		Kind SourceKind

		tasks map[string]*Task
		order []string
	}
)

// NewGraph creates an empty Graph for the given document.
func NewGraph(path string, kind SourceKind) *Graph {
	return &Graph{
		Path:  path,
		Kind:  kind,
		tasks: make(map[string]*Task),
	}
}

// Add inserts or replaces a task. A replaced task keeps its original position.
func (g *Graph) Add(t *Task) {
	if _, exists := g.tasks[t.Name]; !exists {
		g.order = append(g.order, t.Name)
	}
	g.tasks[t.Name] = t
}

// Get returns the named task.
func (g *Graph) Get(name string) (*Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Has reports whether the graph defines the named task.
func (g *Graph) Has(name string) bool {
	_, ok := g.tasks[name]
	return ok
}

// Names returns task names in declaration order.
func (g *Graph) Names() []string {
	return slices.Clone(g.order)
}

// Tasks returns the tasks in declaration order.
func (g *Graph) Tasks() []*Task {
	out := make([]*Task, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.tasks[name])
	}
	return out
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	return len(g.order)
}

// Lookup returns the named task or an *UnknownTargetError.
func (g *Graph) Lookup(name string) (*Task, error) {
	if t, ok := g.tasks[name]; ok {
		return t, nil
	}
	return nil, &UnknownTargetError{Name: name, Source: g.Path, Available: g.Names()}
}
