// SPDX-License-Identifier: MPL-2.0

package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/pkg/types"

	"github.com/charmbracelet/log"
)

// ErrExecutorFailed is the sentinel error wrapped by ExecutorError.
var ErrExecutorFailed = errors.New("executor failed")

type (
	// Invocation is one run of the executor over a graph file.
	Invocation struct {
		GraphPath string
		// Target is the executor target; empty builds the default target.
		Target  string
		Verbose bool
	}

	// Executor runs a generated graph.
	Executor interface {
		Run(ctx context.Context, inv Invocation) error
	}

	// ExecutorError is returned when the executor exits non-zero.
	ExecutorError struct {
		Executor string
		Code     types.ExitCode
	}

	// Runner is the Executor that starts an llbuild-compatible tool as a
	// subprocess, streaming its output.
	Runner struct {
		path   string
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)
)

// Error implements the error interface.
func (e *ExecutorError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Executor, e.Code)
}

// Unwrap returns ErrExecutorFailed for errors.Is() compatibility.
func (e *ExecutorError) Unwrap() error { return ErrExecutorFailed }

// WithOutput sets where the executor's stdout and stderr go.
func WithOutput(stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithRunnerLogger sets the logger used for the command line at debug level.
func WithRunnerLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner for the executor at path (a name is looked up
// on PATH when the runner is used).
func NewRunner(path string, opts ...RunnerOption) *Runner {
	r := &Runner{
		path:   path,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Args returns the executor arguments for inv: -f <graph> [-v] [target].
func (inv Invocation) Args() []string {
	args := []string{"-f", inv.GraphPath}
	if inv.Verbose {
		args = append(args, "-v")
	}
	if inv.Target != "" {
		args = append(args, inv.Target)
	}
	return args
}

// Run starts the executor and waits for it.
func (r *Runner) Run(ctx context.Context, inv Invocation) error {
	resolved, err := exec.LookPath(r.path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("start executor").
			WithResource(r.path).
			WithIssue(issue.ExecutorNotFoundId).
			WithSuggestion("Install swift-build-tool (it ships with the Swift toolchain)").
			WithSuggestion("Point --executor or BUILDGRAPH_EXECUTOR at the executor binary").
			Wrap(err).
			BuildError()
	}

	args := inv.Args()
	r.logger.Debug("running executor", "path", resolved, "args", args)

	cmd := exec.CommandContext(ctx, resolved, args...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExecutorError{Executor: r.path, Code: types.ExitCode(exitErr.ExitCode())}
		}
		return fmt.Errorf("failed to run executor %s: %w", r.path, err)
	}
	return nil
}
