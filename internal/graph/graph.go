// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/buildgraph/buildgraph/internal/command"
	"github.com/buildgraph/buildgraph/internal/dag"
)

// ErrUnresolvedDependency is the sentinel error wrapped by UnresolvedDependencyError.
var ErrUnresolvedDependency = errors.New("unresolved dependency")

type (
	// Module is a manifest module with its discovered sources.
	Module = command.Module

	// Target maps an executor target name to a node identifier.
	Target struct {
		Name string
		Node string
	}

	// Graph is the complete node set of one build. It is immutable once
	// returned by Build.
	Graph struct {
		env     command.Environment
		layout  command.Layout
		modules []Module
		byName  map[string]int
		nodes   []Node
		bundles []*command.Bundle
	}

	// UnresolvedDependencyError is returned when a module names a dependency
	// that is not part of the build.
	UnresolvedDependencyError struct {
		Module     string
		Dependency string
		// TestOnly is set when Dependency is a test module and test building
		// is disabled.
		TestOnly bool
	}
)

// Error implements the error interface.
func (e *UnresolvedDependencyError) Error() string {
	if e.TestOnly {
		return fmt.Sprintf("module %q depends on test module %q, which is only built with tests enabled", e.Module, e.Dependency)
	}
	return fmt.Sprintf("module %q depends on undefined module %q", e.Module, e.Dependency)
}

// Unwrap returns ErrUnresolvedDependency for errors.Is.
func (e *UnresolvedDependencyError) Unwrap() error { return ErrUnresolvedDependency }

// Build synthesizes the node set for modules, which must be in declaration
// order. Test modules are left out unless env.BuildTests is set. A dangling
// dependency yields *UnresolvedDependencyError and a dependency cycle yields
// *dag.CycleError; no partial graph is returned in either case.
func Build(env command.Environment, layout command.Layout, modules []Module) (*Graph, error) {
	g := &Graph{
		env:    env,
		layout: layout,
		byName: make(map[string]int, len(modules)),
	}

	declared := make(map[string]Module, len(modules))
	for _, m := range modules {
		declared[m.Name] = m
		if m.Test && !env.BuildTests {
			continue
		}
		g.byName[m.Name] = len(g.modules)
		g.modules = append(g.modules, m)
	}

	deps, err := g.resolve(declared)
	if err != nil {
		return nil, err
	}

	for _, m := range g.modules {
		g.addModule(m, deps)
	}

	aggregate := &BarrierNode{ID: AggregateID, Deps: make([]string, 0, len(g.modules))}
	for _, m := range g.modules {
		aggregate.Deps = append(aggregate.Deps, AliasID(m.Name))
	}
	g.nodes = append(g.nodes, aggregate)

	return g, nil
}

// resolve checks every dependency edge of the active modules and rejects
// cycles.
func (g *Graph) resolve(declared map[string]Module) (*dag.Graph, error) {
	deps := dag.New()
	for _, m := range g.modules {
		deps.AddNode(m.Name)
	}
	for _, m := range g.modules {
		for _, dep := range m.Dependencies {
			if _, ok := g.byName[dep]; !ok {
				_, exists := declared[dep]
				return nil, &UnresolvedDependencyError{Module: m.Name, Dependency: dep, TestOnly: exists}
			}
			deps.AddDependency(m.Name, dep)
		}
	}
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return deps, nil
}

func (g *Graph) addModule(m Module, deps *dag.Graph) {
	barrier := &BarrierNode{ID: BarrierID(m.Name)}
	for _, dep := range deps.Dependencies(m.Name) {
		barrier.Deps = append(barrier.Deps, AliasID(dep))
	}
	g.nodes = append(g.nodes, barrier)

	var linkIn, objects []string
	if len(m.Sources) > 0 {
		compile := &CompileNode{
			ID:      CompileID(m.Name),
			Barrier: barrier.ID,
			Command: command.Compile(g.env, g.layout, m),
		}
		g.nodes = append(g.nodes, compile)
		linkIn = compile.Outputs()
		objects = compile.Command.Objects
	} else {
		linkIn = []string{barrier.ID}
	}

	closure := deps.Closure(m.Name)
	archives := make([]string, 0, len(closure))
	libs := slices.Clone(m.ExtraLibraries)
	for _, name := range closure {
		dep := g.modules[g.byName[name]]
		if dep.Mode(g.env) == command.LinkLibrary {
			archives = append(archives, g.layout.Archive(name))
		}
		for _, lib := range dep.ExtraLibraries {
			if !slices.Contains(libs, lib) {
				libs = append(libs, lib)
			}
		}
	}
	linkIn = append(linkIn, archives...)

	link := &LinkNode{
		ID:      LinkID(m.Name),
		Module:  m.Name,
		In:      linkIn,
		Command: command.Link(g.env, g.layout, m, objects, archives, libs),
	}
	g.nodes = append(g.nodes, link)
	if link.Command.Bundle != nil {
		g.bundles = append(g.bundles, link.Command.Bundle)
	}

	g.nodes = append(g.nodes, &AliasNode{ID: AliasID(m.Name), Link: link.ID})
}

// Environment returns the environment the graph was built for.
func (g *Graph) Environment() command.Environment { return g.env }

// Layout returns the output layout of the graph.
func (g *Graph) Layout() command.Layout { return g.layout }

// Lookup returns the active module called name.
func (g *Graph) Lookup(name string) (Module, bool) {
	i, ok := g.byName[name]
	if !ok {
		return Module{}, false
	}
	return g.modules[i], true
}

// Modules returns the active modules in declaration order.
func (g *Graph) Modules() []Module { return slices.Clone(g.modules) }

// Nodes returns every node in emission order: per module barrier, compile,
// link and alias, followed by the aggregate barrier.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Node returns the node with the given identifier.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.nodes {
		if n.Name() == id {
			return n, true
		}
	}
	return nil, false
}

// Bundles returns the test bundles whose metadata must be written before
// the graph runs.
func (g *Graph) Bundles() []*command.Bundle { return slices.Clone(g.bundles) }

// Targets returns the executor's addressable names: the default target "",
// "all", then one per module.
func (g *Graph) Targets() []Target {
	targets := make([]Target, 0, len(g.modules)+2)
	targets = append(targets, Target{Name: "", Node: AggregateID}, Target{Name: "all", Node: AggregateID})
	for _, m := range g.modules {
		targets = append(targets, Target{Name: m.Name, Node: AliasID(m.Name)})
	}
	return targets
}
