// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/buildgraph/buildgraph/internal/driver"
	"github.com/buildgraph/buildgraph/internal/generate"
	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/pkg/types"

	"github.com/spf13/cobra"
)

// runAction handles `buildgraph [action]`.
func runAction(cmd *cobra.Command, app *App, flags *rootFlagValues, name string) error {
	action, err := driver.ParseAction(name)
	if err != nil {
		return &ExitError{
			Code: types.ExitUsage,
			Err: issue.NewErrorContext().
				WithOperation("parse action").
				WithResource(name).
				WithIssue(issue.UnknownActionId).
				WithSuggestion("Run 'buildgraph --help' to list the actions").
				Wrap(err).
				BuildError(),
		}
	}

	s, err := app.loadSession(cmd, flags)
	if err != nil {
		return err
	}
	s.logger.Debug("configuration loaded", "sources", s.sources, "flags", changedFlags(cmd.Flags()))

	req, err := s.request()
	if err != nil {
		return err
	}

	d := driver.New(
		generate.New(generate.WithLogger(s.logger)),
		app.NewExecutor(s.cfg.Executor, app.stdout, app.stderr, s.logger),
		s.logger,
	)
	report, err := d.Run(cmd.Context(), action, req, driver.Options{
		Verbose: s.cfg.Verbose,
		Prefix:  s.cfg.Prefix,
	})
	if err != nil {
		return &ExitError{Code: exitCodeFor(err), Err: err}
	}

	printReport(app, report)
	return nil
}

func printReport(app *App, report *driver.Report) {
	check := SuccessStyle.Render("✓")
	switch report.Action {
	case driver.ActionClean:
		fmt.Fprintf(app.stdout, "%s Removed %s\n", check, KeyStyle.Render(report.Removed))
		return
	case driver.ActionInstall:
		for _, path := range report.Installed {
			fmt.Fprintf(app.stdout, "%s Installed %s\n", check, KeyStyle.Render(path))
		}
	}
	if report.Generated != nil {
		fmt.Fprintf(app.stdout, "%s Build complete (%s)\n", check, SubtitleStyle.Render(report.Generated.GraphPath))
	}
}
