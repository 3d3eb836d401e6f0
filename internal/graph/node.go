// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"slices"

	"github.com/buildgraph/buildgraph/internal/command"
)

// AggregateID is the barrier that depends on every module alias.
const AggregateID = "<all>"

type (
	// Node is one element of the build graph. The set of implementations is
	// closed: *BarrierNode, *CompileNode, *LinkNode and *AliasNode.
	Node interface {
		// Name is the node identifier.
		Name() string
		Inputs() []string
		Outputs() []string

		sealed()
	}

	// BarrierNode is a phony ordering node.
	BarrierNode struct {
		ID string
		// Deps are the alias identifiers that must complete first.
		Deps []string
	}

	// CompileNode compiles every source of one module.
	CompileNode struct {
		ID      string
		Barrier string
		Command command.CompileCommand
	}

	// LinkNode produces a module's archive, executable or test bundle.
	LinkNode struct {
		ID      string
		Module  string
		In      []string
		Command command.LinkCommand
	}

	// AliasNode is the externally addressable "module fully built" handle.
	AliasNode struct {
		ID   string
		Link string
	}
)

// AliasID returns the top-level identifier of a module.
func AliasID(module string) string { return "<" + module + ">" }

// BarrierID returns the identifier of a module's dependency barrier.
func BarrierID(module string) string { return "<" + module + "-deps>" }

// CompileID returns the identifier of a module's compile node.
func CompileID(module string) string { return "<" + module + "-compile>" }

// LinkID returns the identifier of a module's link node.
func LinkID(module string) string { return "<" + module + "-link>" }

func (n *BarrierNode) Name() string      { return n.ID }
func (n *BarrierNode) Inputs() []string  { return slices.Clone(n.Deps) }
func (n *BarrierNode) Outputs() []string { return []string{n.ID} }
func (*BarrierNode) sealed()             {}

func (n *CompileNode) Name() string { return n.ID }

// Inputs are the barrier followed by every source.
func (n *CompileNode) Inputs() []string {
	return append([]string{n.Barrier}, n.Command.Sources...)
}

// Outputs are the module interface followed by one object per source.
func (n *CompileNode) Outputs() []string { return n.Command.Outputs() }
func (*CompileNode) sealed()             {}

func (n *LinkNode) Name() string     { return n.ID }
func (n *LinkNode) Inputs() []string { return slices.Clone(n.In) }

// Outputs are the linked artifact and the node identifier.
func (n *LinkNode) Outputs() []string { return []string{n.Command.Output, n.ID} }
func (*LinkNode) sealed()             {}

func (n *AliasNode) Name() string      { return n.ID }
func (n *AliasNode) Inputs() []string  { return []string{n.Link} }
func (n *AliasNode) Outputs() []string { return []string{n.ID} }
func (*AliasNode) sealed()             {}
