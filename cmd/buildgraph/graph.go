// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/buildgraph/buildgraph/internal/config"
	"github.com/buildgraph/buildgraph/internal/generate"
	"github.com/buildgraph/buildgraph/internal/manifest"
	"github.com/buildgraph/buildgraph/internal/watch"

	"github.com/spf13/cobra"
)

type graphFlagValues struct {
	watch  bool
	stdout bool
}

func newGraphCommand(app *App, root *rootFlagValues) *cobra.Command {
	flags := &graphFlagValues{}

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate the build graph without running it",
		Long: `Generate the llbuild graph under the build root without running the executor.

The file is only rewritten when its content changes, so an up-to-date graph
keeps its modification time. With --watch the graph is regenerated whenever a
Swift source, the manifest or the project config changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, app, root, flags)
		},
	}

	graphCmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "regenerate when sources or the manifest change")
	graphCmd.Flags().BoolVar(&flags.stdout, "stdout", false, "print the graph instead of writing it")
	graphCmd.MarkFlagsMutuallyExclusive("watch", "stdout")

	return graphCmd
}

func runGraph(cmd *cobra.Command, app *App, root *rootFlagValues, flags *graphFlagValues) error {
	s, err := app.loadSession(cmd, root)
	if err != nil {
		return err
	}
	if flags.watch {
		return watchGraph(cmd, app, root, s)
	}

	req, err := s.request()
	if err != nil {
		return err
	}
	req.DryRun = flags.stdout

	result, err := generate.New(generate.WithLogger(s.logger)).Generate(cmd.Context(), req)
	if err != nil {
		return &ExitError{Code: exitCodeFor(err), Err: err}
	}
	if flags.stdout {
		_, err := app.stdout.Write(result.Content)
		return err
	}
	printGenerated(app, result)
	return nil
}

func printGenerated(app *App, result *generate.Result) {
	if result.Changed {
		fmt.Fprintf(app.stdout, "%s Wrote %s\n", SuccessStyle.Render("✓"), KeyStyle.Render(result.GraphPath))
		return
	}
	fmt.Fprintf(app.stdout, "%s %s is up to date\n", SubtitleStyle.Render("·"), KeyStyle.Render(result.GraphPath))
}

// regenerator returns a function that reloads the configuration and writes
// the graph. Errors are reported on stderr so a watch keeps running.
func regenerator(cmd *cobra.Command, app *App, root *rootFlagValues) func(ctx context.Context) {
	return func(ctx context.Context) {
		err := func() error {
			s, err := app.loadSession(cmd, root)
			if err != nil {
				return err
			}
			req, err := s.request()
			if err != nil {
				return err
			}
			result, err := generate.New(generate.WithLogger(s.logger)).Generate(ctx, req)
			if err != nil {
				return err
			}
			printGenerated(app, result)
			return nil
		}()
		if err != nil {
			renderError(app.stderr, err, app.verbose)
		}
	}
}

// watchGraph generates once, then regenerates on every relevant change until
// the command context is cancelled. Each change reloads the configuration, so
// edits to the project config take effect without a restart.
func watchGraph(cmd *cobra.Command, app *App, root *rootFlagValues, s *session) error {
	regenerate := regenerator(cmd, app, root)
	regenerate(cmd.Context())

	w, err := watch.New(watch.Config{
		BaseDir:  s.projectDir,
		Patterns: watchPatterns(),
		Ignore:   buildRootIgnore(s.projectDir, s.cfg.BuildPath),
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			s.logger.Info("change detected", "files", changed)
			regenerate(ctx)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Watching %s for changes (Ctrl+C to stop)\n",
		KeyStyle.Render("→"), KeyStyle.Render(s.projectDir))
	return w.Run(cmd.Context())
}

// watchPatterns selects Swift sources, every manifest format and the
// project config file.
func watchPatterns() []string {
	patterns := slices.Clone(watch.SourcePatterns)
	for _, ext := range manifest.Extensions {
		patterns = append(patterns, manifest.FileBaseName+ext)
	}
	return append(patterns, config.FileName())
}

// buildRootIgnore keeps graph writes from retriggering the watcher when the
// build root lives inside the project.
func buildRootIgnore(projectDir, buildPath string) []string {
	rel, err := filepath.Rel(projectDir, generate.BuildRoot(projectDir, buildPath))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return []string{filepath.ToSlash(rel) + "/**"}
}
