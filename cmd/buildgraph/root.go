// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the buildgraph command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/buildgraph/buildgraph/internal/driver"
	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	actionNames := make([]string, 0, len(driver.Actions()))
	for _, a := range driver.Actions() {
		actionNames = append(actionNames, string(a))
	}

	rootCmd := &cobra.Command{
		Use:   "buildgraph [clean|all|test|install]",
		Short: "Generate and run llbuild graphs for Swift modules",
		Long: TitleStyle.Render("buildgraph") + SubtitleStyle.Render(" - a build-graph compiler for Swift modules") + `

buildgraph reads a module manifest (buildgraph.cue, .toml or .hcl), discovers
each module's sources, writes an llbuild graph under the build root and hands
it to swift-build-tool.

` + SubtitleStyle.Render("Actions:") + `
  all       Regenerate the graph and build every module (default)
  test      Same as all, with test modules enabled
  install   Build, then copy executables into <prefix>/bin
  clean     Remove the build root

` + SubtitleStyle.Render("Examples:") + `
  buildgraph                  Build everything
  buildgraph test -v          Build including tests, verbosely
  buildgraph graph --stdout   Print the graph without writing it
  buildgraph config show      Show the effective configuration`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return &ExitError{Code: types.ExitUsage, Err: err}
			}
			return nil
		},
		ValidArgs:     actionNames,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runAction(cmd, app, flags, name)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: types.ExitUsage, Err: err}
	})
	flags.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newGraphCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with fang styling and exits with the code carried by
// the returned error. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.verbose)
		}),
	); err != nil {
		os.Exit(int(exitCodeFor(err)))
	}
}

// renderError writes err for the user. Actionable errors show their
// suggestions; verbose mode adds the error chain and the catalog entry.
func renderError(w io.Writer, err error, verbose bool) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
	if !verbose {
		return
	}
	id := issueFor(err)
	if id == 0 {
		return
	}
	if entry := issue.Get(id); entry != nil {
		if rendered, renderErr := entry.Render("dark"); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// issueFor maps err onto a catalog entry, 0 when none applies.
func issueFor(err error) issue.Id {
	var ae *issue.ActionableError
	switch {
	case errors.As(err, &ae) && ae.Issue != 0:
		return ae.Issue
	case errors.Is(err, driver.ErrUnknownAction):
		return issue.UnknownActionId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	default:
		return 0
	}
}

// changedFlags lists the explicitly set flags, for debug logging.
func changedFlags(flags *pflag.FlagSet) []string {
	var names []string
	flags.Visit(func(f *pflag.Flag) {
		names = append(names, f.Name)
	})
	slices.Sort(names)
	return names
}
