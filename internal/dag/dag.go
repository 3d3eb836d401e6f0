// SPDX-License-Identifier: MPL-2.0

// Package dag provides the module dependency graph used to validate a manifest
// before any build node is synthesized. It detects dependency cycles and
// computes deterministic dependency-first orderings for link closures.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	unvisited visitState = iota
	visiting
	visited
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError indicates that module dependencies form a cycle.
	CycleError struct {
		// Cycle is the dependency path that closes the loop. The first and last
		// element are the same module, e.g. [A B C A] for A -> B -> C -> A.
		Cycle []string
	}

	// Graph is a directed dependency graph keyed by module name. An edge from
	// a module to one of its dependencies means the dependency must be fully
	// built before the module starts.
	Graph struct {
		// deps maps each node to its dependencies in the order they were declared.
		deps map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}

	visitState uint8
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		deps:    make(map[string][]string),
		nodeSet: make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddDependency records that module depends on dep. Both nodes are implicitly
// added if they don't exist. Repeated edges are ignored.
func (g *Graph) AddDependency(module, dep string) {
	g.AddNode(module)
	g.AddNode(dep)
	if slices.Contains(g.deps[module], dep) {
		return
	}
	g.deps[module] = append(g.deps[module], dep)
}

// Dependencies returns the direct dependencies of name in declaration order.
func (g *Graph) Dependencies(name string) []string {
	return append([]string(nil), g.deps[name]...)
}

// FindCycle walks the graph depth-first with three-color visitation state and
// returns the first cycle it meets, or nil. Roots are visited in insertion
// order and dependencies in declaration order, so the reported cycle is stable.
func (g *Graph) FindCycle() []string {
	state := make(map[string]visitState, len(g.nodes))
	var stack []string

	var walk func(name string) []string
	walk = func(name string) []string {
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range g.deps[name] {
			switch state[dep] {
			case visiting:
				start := slices.Index(stack, dep)
				cycle := append([]string(nil), stack[start:]...)
				return append(cycle, dep)
			case unvisited:
				if cycle := walk(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = visited
		return nil
	}

	for _, node := range g.nodes {
		if state[node] != unvisited {
			continue
		}
		if cycle := walk(node); cycle != nil {
			return cycle
		}
	}
	return nil
}

// Validate returns a CycleError if the graph contains a cycle. Kahn's sort
// decides acyclicity; FindCycle only runs to report the offending path.
func (g *Graph) Validate() error {
	_, err := g.TopologicalSort()
	return err
}

// TopologicalSort returns a dependency-first order using Kahn's algorithm.
// Returns CycleError if the graph contains a cycle.
// The returned order is deterministic: nodes at the same topological level
// appear in the order they were first added to the graph.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	// Pending dependency count per node, and reverse edges for release.
	pending := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for _, node := range g.nodes {
		pending[node] = len(g.deps[node])
		for _, dep := range g.deps[node] {
			dependents[dep] = append(dependents[dep], node)
		}
	}

	queue := make([]string, 0)
	for _, node := range g.nodes {
		if pending[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, dependent := range dependents[node] {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.FindCycle()}
	}
	return result, nil
}

// Closure returns every node reachable from name through dependency edges,
// excluding name itself, in dependency-first order. The graph must be acyclic.
func (g *Graph) Closure(name string) []string {
	seen := map[string]bool{name: true}
	var order []string

	var walk func(n string)
	walk = func(n string) {
		for _, dep := range g.deps[n] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			walk(dep)
			order = append(order, dep)
		}
	}
	walk(name)
	return order
}
