// SPDX-License-Identifier: MPL-2.0

package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/buildgraph/buildgraph/internal/command"
	"github.com/buildgraph/buildgraph/internal/dag"
	"github.com/buildgraph/buildgraph/internal/discovery"
	"github.com/buildgraph/buildgraph/internal/filewrite"
	"github.com/buildgraph/buildgraph/internal/graph"
	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/internal/llbuild"
	"github.com/buildgraph/buildgraph/internal/manifest"
	"github.com/buildgraph/buildgraph/pkg/types"

	"github.com/charmbracelet/log"
)

// DefaultBuildPath is the build root used when a Request leaves BuildPath empty.
const DefaultBuildPath = ".build"

type (
	// Request describes one generation run.
	Request struct {
		// Manifest is an in-memory manifest. When nil, ManifestPath is loaded.
		Manifest     *manifest.Manifest
		ManifestPath string
		// ProjectDir is the base for module source roots and a relative
		// BuildPath. Defaults to the manifest's directory.
		ProjectDir string
		BuildPath  string
		Env        command.Environment
		// Exclude holds extra doublestar patterns skipped during discovery.
		Exclude []string
		// DryRun renders the graph without touching the filesystem.
		DryRun bool
	}

	// Result reports what a generation run produced.
	Result struct {
		GraphPath string
		// Changed is false when the graph file already held identical bytes.
		Changed bool
		Content []byte
		Graph   *graph.Graph
		Bundles []*command.Bundle
	}

	// Generator runs the pipeline. The zero value is not usable; call New.
	Generator struct {
		logger *log.Logger
	}

	// Option configures a Generator.
	Option func(*Generator)
)

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *log.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a Generator. Without WithLogger it logs nowhere.
func New(opts ...Option) *Generator {
	g := &Generator{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs the pipeline for req.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generate canceled: %w", err)
	}

	mf, err := g.manifest(req)
	if err != nil {
		return nil, err
	}

	projectDir := req.ProjectDir
	if projectDir == "" {
		projectDir = mf.Dir
	}
	if projectDir == "" {
		projectDir = "."
	}

	modules, err := g.discover(ctx, mf, projectDir, req.Exclude)
	if err != nil {
		return nil, err
	}

	layout := command.NewLayout(BuildRoot(projectDir, req.BuildPath))
	built, err := graph.Build(req.Env, layout, modules)
	if err != nil {
		return nil, graphError(err)
	}

	content, err := llbuild.Render(built)
	if err != nil {
		return nil, fmt.Errorf("failed to render build graph: %w", err)
	}

	result := &Result{
		GraphPath: layout.GraphFile(),
		Content:   content,
		Graph:     built,
		Bundles:   built.Bundles(),
	}
	if req.DryRun {
		return result, nil
	}

	if err := g.write(built, result); err != nil {
		return nil, err
	}
	return result, nil
}

// BuildRoot resolves buildPath against projectDir.
func BuildRoot(projectDir, buildPath string) string {
	if buildPath == "" {
		buildPath = DefaultBuildPath
	}
	return types.FilesystemPath(buildPath).Resolve(projectDir)
}

func (g *Generator) manifest(req Request) (*manifest.Manifest, error) {
	if req.Manifest != nil {
		if err := req.Manifest.Validate(); err != nil {
			return nil, manifestError(err, "")
		}
		return req.Manifest, nil
	}

	path := req.ManifestPath
	if path == "" {
		dir := req.ProjectDir
		if dir == "" {
			dir = "."
		}
		found, err := manifest.Find(dir)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("find manifest").
				WithResource(dir).
				WithIssue(issue.ManifestNotFoundId).
				WithSuggestion("Run buildgraph from the directory containing buildgraph.cue").
				WithSuggestion("Pass the manifest explicitly with --manifest").
				Wrap(err).
				BuildError()
		}
		path = found
	}

	g.logger.Debug("loading manifest", "path", path)
	mf, err := manifest.Load(path)
	if err != nil {
		return nil, manifestError(err, path)
	}
	return mf, nil
}

func (g *Generator) discover(ctx context.Context, mf *manifest.Manifest, projectDir string, exclude []string) ([]graph.Module, error) {
	modules := make([]graph.Module, 0, len(mf.Modules))
	for _, m := range mf.Modules {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate canceled: %w", err)
		}

		root := m.SourceRoot(projectDir)
		found, err := discovery.Discover(root, discovery.Options{Exclude: exclude})
		if err != nil {
			ec := issue.NewErrorContext().
				WithOperation("discover sources").
				WithResource(root)
			if errors.Is(err, os.ErrPermission) {
				ec = ec.WithIssue(issue.PermissionDeniedId).
					WithSuggestion("Check the permissions of the module's source directory")
			}
			return nil, ec.Wrap(err).BuildError()
		}

		g.logger.Debug("discovered sources", "module", m.Name, "sources", len(found.Sources), "executable", found.Executable)
		modules = append(modules, graph.Module{Module: m, Result: found, SourceDir: root})
	}
	return modules, nil
}

func (g *Generator) write(built *graph.Graph, result *Result) error {
	layout := built.Layout()

	dirs := layout.SharedDirs()
	for _, m := range built.Modules() {
		dirs = append(dirs, layout.BuildDir(m.Name))
	}
	for _, b := range result.Bundles {
		dirs = append(dirs, b.ExecutableDir)
	}
	if err := filewrite.EnsureDirs(dirs...); err != nil {
		return writeError(err, layout.Root)
	}

	for _, b := range result.Bundles {
		plist, err := b.InfoPlist()
		if err != nil {
			return fmt.Errorf("failed to render Info.plist for %s: %w", b.Name, err)
		}
		changed, err := filewrite.WriteIfChanged(b.InfoPlistPath, plist, filewrite.DefaultPerm)
		if err != nil {
			return writeError(err, b.InfoPlistPath)
		}
		g.logger.Debug("bundle metadata", "module", b.Name, "changed", changed)
	}

	changed, err := filewrite.WriteIfChanged(result.GraphPath, result.Content, filewrite.DefaultPerm)
	if err != nil {
		return writeError(err, result.GraphPath)
	}
	result.Changed = changed

	if changed {
		g.logger.Info("wrote build graph", "path", result.GraphPath, "commands", len(built.Nodes()))
	} else {
		g.logger.Debug("build graph unchanged", "path", result.GraphPath)
	}
	return nil
}

func manifestError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load manifest").
		WithResource(path).
		WithIssue(issue.ManifestParseErrorId).
		WithSuggestion("Check module names, dependencies and the format version").
		Wrap(err).
		BuildError()
}

func graphError(err error) error {
	var unresolved *graph.UnresolvedDependencyError
	if errors.As(err, &unresolved) {
		ec := issue.NewErrorContext().
			WithOperation("resolve dependencies").
			WithResource(unresolved.Module).
			WithIssue(issue.UnresolvedDependencyId)
		if unresolved.TestOnly {
			ec = ec.WithSuggestion("Enable test modules with --build-tests or drop the dependency")
		} else {
			ec = ec.WithSuggestion(fmt.Sprintf("Declare a module named %q or fix the dependency name", unresolved.Dependency))
		}
		return ec.Wrap(err).BuildError()
	}

	var cycle *dag.CycleError
	if errors.As(err, &cycle) {
		return issue.NewErrorContext().
			WithOperation("resolve dependencies").
			WithIssue(issue.DependencyCycleId).
			WithSuggestion("Remove one of the dependencies listed in the cycle").
			Wrap(err).
			BuildError()
	}

	return fmt.Errorf("failed to build graph: %w", err)
}

func writeError(err error, path string) error {
	ec := issue.NewErrorContext().
		WithOperation("write build outputs").
		WithResource(path)
	if errors.Is(err, os.ErrPermission) {
		ec = ec.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Choose a writable build directory with --build-path")
	}
	return ec.Wrap(err).BuildError()
}
