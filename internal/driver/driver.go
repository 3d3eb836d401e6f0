// SPDX-License-Identifier: MPL-2.0

package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/buildgraph/buildgraph/internal/command"
	"github.com/buildgraph/buildgraph/internal/generate"
	"github.com/buildgraph/buildgraph/internal/issue"

	"github.com/charmbracelet/log"
)

const (
	// ActionAll regenerates the graph and builds every module.
	ActionAll Action = "all"
	// ActionClean removes the build root.
	ActionClean Action = "clean"
	// ActionTest is ActionAll with test modules enabled.
	ActionTest Action = "test"
	// ActionInstall builds and copies executables into <prefix>/bin.
	ActionInstall Action = "install"
)

// ErrUnknownAction is the sentinel error wrapped by UnknownActionError.
var ErrUnknownAction = errors.New("unknown action")

type (
	// Action is a driver entry point.
	Action string

	// UnknownActionError is returned by ParseAction for unrecognized names.
	UnknownActionError struct {
		Value string
	}

	// Options are the per-run inputs that do not affect the graph itself.
	Options struct {
		Verbose bool
		// Prefix is the install prefix for ActionInstall.
		Prefix string
	}

	// Report summarizes a driver run.
	Report struct {
		Action    Action
		Generated *generate.Result
		// Removed is the build root deleted by ActionClean.
		Removed string
		// Installed lists the files copied by ActionInstall.
		Installed []string
	}

	// Driver runs actions.
	Driver struct {
		generator *generate.Generator
		executor  Executor
		logger    *log.Logger
	}
)

// Actions returns every action in the order they are documented.
func Actions() []Action {
	return []Action{ActionClean, ActionAll, ActionTest, ActionInstall}
}

// ParseAction maps a command-line word onto an Action. The empty string
// selects ActionAll.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return ActionAll, nil
	}
	a := Action(s)
	if !slices.Contains(Actions(), a) {
		return "", &UnknownActionError{Value: s}
	}
	return a, nil
}

// Error implements the error interface.
func (e *UnknownActionError) Error() string {
	names := make([]string, 0, len(Actions()))
	for _, a := range Actions() {
		names = append(names, string(a))
	}
	return fmt.Sprintf("unknown action %q (valid: %s)", e.Value, strings.Join(names, ", "))
}

// Unwrap returns ErrUnknownAction for errors.Is() compatibility.
func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }

// New creates a Driver. A nil logger discards output.
func New(generator *generate.Generator, executor Executor, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Driver{generator: generator, executor: executor, logger: logger}
}

// Run performs action for req.
func (d *Driver) Run(ctx context.Context, action Action, req generate.Request, opts Options) (*Report, error) {
	report := &Report{Action: action}

	switch action {
	case ActionClean:
		removed, err := d.clean(req)
		if err != nil {
			return nil, err
		}
		report.Removed = removed
		return report, nil

	case ActionTest:
		req.Env.BuildTests = true
		fallthrough
	case ActionAll, ActionInstall:
		res, err := d.build(ctx, req, opts)
		if err != nil {
			return nil, err
		}
		report.Generated = res

	default:
		return nil, &UnknownActionError{Value: string(action)}
	}

	if action == ActionInstall {
		installed, err := d.install(report.Generated, opts.Prefix)
		if err != nil {
			return nil, err
		}
		report.Installed = installed
	}
	return report, nil
}

func (d *Driver) build(ctx context.Context, req generate.Request, opts Options) (*generate.Result, error) {
	result, err := d.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	d.logger.Info("running executor", "graph", result.GraphPath, "tests", req.Env.BuildTests)
	if err := d.executor.Run(ctx, Invocation{GraphPath: result.GraphPath, Verbose: opts.Verbose}); err != nil {
		var execErr *ExecutorError
		if errors.As(err, &execErr) {
			return nil, issue.NewErrorContext().
				WithOperation("build").
				WithResource(result.GraphPath).
				WithIssue(issue.ExecutorFailedId).
				WithSuggestion("Scroll up for the compiler or linker diagnostics").
				WithSuggestion("Re-run with --verbose to see every command the executor ran").
				Wrap(err).
				BuildError()
		}
		return nil, err
	}
	return result, nil
}

func (d *Driver) clean(req generate.Request) (string, error) {
	projectDir := projectDir(req)
	root := generate.BuildRoot(projectDir, req.BuildPath)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve build root %s: %w", root, err)
	}
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project directory %s: %w", projectDir, err)
	}
	if absRoot == absProject || absRoot == filepath.Dir(absRoot) {
		return "", issue.NewErrorContext().
			WithOperation("clean").
			WithResource(absRoot).
			WithSuggestion("Set --build-path to a dedicated directory such as .build").
			Wrap(errors.New("refusing to remove a build root that is the project directory or a filesystem root")).
			BuildError()
	}

	d.logger.Info("removing build root", "path", absRoot)
	if err := os.RemoveAll(absRoot); err != nil {
		return "", issue.NewErrorContext().
			WithOperation("clean").
			WithResource(absRoot).
			Wrap(err).
			BuildError()
	}
	return absRoot, nil
}

// install copies every non-test executable product into <prefix>/bin.
func (d *Driver) install(result *generate.Result, prefix string) ([]string, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, errors.New("install prefix must not be empty")
	}

	g := result.Graph
	env := g.Environment()
	layout := g.Layout()
	binDir := filepath.Join(prefix, "bin")

	var installed []string
	for _, m := range g.Modules() {
		if m.Test || m.Mode(env) != command.LinkExecutable {
			continue
		}
		if len(installed) == 0 {
			if err := os.MkdirAll(binDir, 0o755); err != nil {
				return nil, installError(err, binDir)
			}
		}
		dst := filepath.Join(binDir, m.Name)
		if err := copyExecutable(layout.Executable(m.Name), dst); err != nil {
			return nil, installError(err, dst)
		}
		d.logger.Info("installed", "module", m.Name, "path", dst)
		installed = append(installed, dst)
	}
	return installed, nil
}

func installError(err error, path string) error {
	ec := issue.NewErrorContext().
		WithOperation("install").
		WithResource(path)
	if errors.Is(err, os.ErrPermission) {
		ec = ec.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Choose a writable --prefix or re-run with elevated permissions")
	}
	return ec.Wrap(err).BuildError()
}

// copyExecutable writes src to a temporary file next to dst and renames it
// into place, so a running copy of dst is never truncated.
func copyExecutable(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(0o755); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func projectDir(req generate.Request) string {
	switch {
	case req.ProjectDir != "":
		return req.ProjectDir
	case req.ManifestPath != "":
		return filepath.Dir(req.ManifestPath)
	case req.Manifest != nil && req.Manifest.Dir != "":
		return req.Manifest.Dir
	default:
		return "."
	}
}
