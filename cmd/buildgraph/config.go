// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/buildgraph/buildgraph/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `buildgraph config` command tree.
func newConfigCommand(app *App, root *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage buildgraph configuration",
		Long: `Manage buildgraph configuration.

Settings are layered, later sources winning:
  1. built-in defaults
  2. buildgraph.config.cue in the user config directory
     (Linux: ~/.config/buildgraph, macOS: ~/Library/Application Support/buildgraph,
     Windows: %APPDATA%\buildgraph)
  3. buildgraph.config.cue next to the manifest
  4. BUILDGRAPH_* environment variables
  5. command-line flags

--config replaces layers 2 and 3 with a single file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.loadSession(cmd, root)
			if err != nil {
				return err
			}
			showConfig(app, s)
			return nil
		},
	})

	var project bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := app.configDir
			if project {
				s, err := app.loadSession(cmd, root)
				if err != nil {
					return err
				}
				dir = s.projectDir
			}
			path, err := config.CreateDefaultConfig(dir)
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), KeyStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&project, "project", false, "write the file next to the manifest instead of the user config directory")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := app.configDir
			if dir == "" {
				var err error
				if dir, err = config.ConfigDir(); err != nil {
					return err
				}
			}
			fmt.Fprintf(app.stdout, "User config file: %s\n", filepath.Join(dir, config.FileName()))
			fmt.Fprintf(app.stdout, "Project config file: %s\n", config.FileName())
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, s *session) {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Effective configuration"))
	if len(s.sources) == 0 {
		fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("sources"), SubtitleStyle.Render("(defaults only)"))
	} else {
		fmt.Fprintf(app.stdout, "%s:\n", KeyStyle.Render("sources"))
		for _, src := range s.sources {
			fmt.Fprintf(app.stdout, "  - %s\n", src)
		}
	}
	fmt.Fprintln(app.stdout)
	fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
}
