// SPDX-License-Identifier: MPL-2.0

package llbuild

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/buildgraph/buildgraph/internal/graph"

	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// ClientName identifies the consumer of the task description.
	ClientName = "swift-build"

	toolPhony    = "phony"
	toolCompiler = "swift-compiler"
	toolShell    = "shell"

	blockStyle yaml.Style = 0
)

// Render encodes g as a swift-build-tool task description.
func Render(g *graph.Graph) ([]byte, error) {
	targets := mapping(blockStyle)
	for _, t := range g.Targets() {
		addPair(targets, quoted(t.Name), list([]string{t.Node}))
	}

	commands := mapping(blockStyle)
	for _, n := range g.Nodes() {
		record, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		addPair(commands, quoted(n.Name()), record)
	}

	client := mapping(blockStyle)
	addField(client, "name", quoted(ClientName))

	root := mapping(blockStyle)
	addField(root, "client", client)
	addField(root, "tools", mapping(yaml.FlowStyle))
	addField(root, "targets", targets)
	addField(root, "commands", commands)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("failed to encode build graph: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode build graph: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeNode(n graph.Node) (*yaml.Node, error) {
	record := mapping(blockStyle)

	switch n := n.(type) {
	case *graph.BarrierNode, *graph.AliasNode:
		addField(record, "tool", quoted(toolPhony))
		addField(record, "inputs", list(n.Inputs()))
		addField(record, "outputs", list(n.Outputs()))

	case *graph.CompileNode:
		c := n.Command
		otherArgs, err := JoinArgs(c.OtherArgs)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Name(), err)
		}
		addField(record, "tool", quoted(toolCompiler))
		addField(record, "executable", quoted(c.Executable))
		addField(record, "module-name", quoted(c.ModuleName))
		addField(record, "module-output-path", quoted(c.ModuleOutputPath))
		addField(record, "inputs", list(n.Inputs()))
		addField(record, "outputs", list(n.Outputs()))
		addField(record, "import-paths", list(c.ImportPaths))
		addField(record, "temps-path", quoted(c.TempsPath))
		addField(record, "objects", list(c.Objects))
		addField(record, "other-args", quoted(otherArgs))
		addField(record, "sources", list(c.Sources))
		addField(record, "is-library", quoted(strconv.FormatBool(c.IsLibrary)))
		addField(record, "num-threads", quoted(strconv.Itoa(c.NumThreads)))

	case *graph.LinkNode:
		args, err := JoinSteps(n.Command.Steps)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Name(), err)
		}
		addField(record, "tool", quoted(toolShell))
		addField(record, "description", quoted(n.Command.Description))
		addField(record, "inputs", list(n.Inputs()))
		addField(record, "outputs", list(n.Outputs()))
		addField(record, "args", quoted(args))

	default:
		return nil, fmt.Errorf("internal error: unknown node type %T", n)
	}
	return record, nil
}

// JoinArgs shell-escapes each argument and joins them with spaces.
func JoinArgs(args []string) (string, error) {
	escaped := make([]string, 0, len(args))
	for _, a := range args {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot escape argument %q: %w", a, err)
		}
		escaped = append(escaped, q)
	}
	return strings.Join(escaped, " "), nil
}

// JoinSteps flattens a sequence of commands into one shell string whose
// steps run in order and stop at the first failure.
func JoinSteps(steps [][]string) (string, error) {
	parts := make([]string, 0, len(steps))
	for _, step := range steps {
		s, err := JoinArgs(step)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " && "), nil
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}

func key(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func list(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, item := range items {
		n.Content = append(n.Content, quoted(item))
	}
	return n
}

func mapping(style yaml.Style) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: style}
}

func addField(m *yaml.Node, name string, value *yaml.Node) {
	addPair(m, key(name), value)
}

func addPair(m, k, v *yaml.Node) {
	m.Content = append(m.Content, k, v)
}
