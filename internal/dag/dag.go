// SPDX-License-Identifier: MPL-2.0

// Package dag linearizes task graphs. [Resolve] produces the depth-first,
// dependency-first execution order for one target; [Validate] runs Kahn's
// algorithm over a whole graph to find cycles that no single target may reach.
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError reports a dependency cycle.
	CycleError struct {
		// Cycle lists the nodes on the cycle. When produced by Resolve the
		// first node is repeated at the end.
		Cycle []string
	}

	// Graph is a directed graph keyed by node name. An edge from A to B means
	// A must complete before B starts.
	Graph struct {
		edges map[string][]string
		order []string
		known map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		edges: make(map[string][]string),
		known: make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.known[name] {
		return
	}
	g.known[name] = true
	g.order = append(g.order, name)
}

// AddEdge records that from must run before to, adding both nodes as needed.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[from] = append(g.edges[from], to)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// TopologicalSort orders the nodes with Kahn's algorithm. Ties are broken by
// insertion order, so the result is deterministic. A *CycleError lists every
// node left with incoming edges once no more nodes can be released.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.order) == 0 {
		return nil, nil
	}

	indegree := make(map[string]int, len(g.order))
	for _, targets := range g.edges {
		for _, to := range targets {
			indegree[to]++
		}
	}

	var ready []string
	for _, node := range g.order {
		if indegree[node] == 0 {
			ready = append(ready, node)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		sorted = append(sorted, node)
		for _, to := range g.edges[node] {
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}

	if len(sorted) < len(g.order) {
		var stuck []string
		for _, node := range g.order {
			if indegree[node] > 0 {
				stuck = append(stuck, node)
			}
		}
		return nil, &CycleError{Cycle: stuck}
	}
	return sorted, nil
}
