// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/buildgraph/buildgraph/internal/command"
	"github.com/buildgraph/buildgraph/internal/config"
	"github.com/buildgraph/buildgraph/internal/driver"
	"github.com/buildgraph/buildgraph/internal/generate"
	"github.com/buildgraph/buildgraph/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type (
	// ExecutorFactory creates the executor that runs a generated graph.
	ExecutorFactory func(path string, stdout, stderr io.Writer, logger *log.Logger) driver.Executor

	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and delegates to the generate and driver packages.
	App struct {
		Config      config.Provider
		NewExecutor ExecutorFactory
		workDir     string
		configDir   string
		stdout      io.Writer
		stderr      io.Writer
		verbose     bool
	}

	// Dependencies defines the injection points for building an App. Nil or
	// empty fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      config.Provider
		NewExecutor ExecutorFactory
		// WorkDir replaces the process working directory.
		WorkDir string
		// ConfigDir replaces the user configuration directory.
		ConfigDir string
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// rootFlagValues holds the persistent flags. A flag only overrides the
	// loaded configuration when it was set explicitly.
	rootFlagValues struct {
		configPath    string
		manifestPath  string
		compiler      string
		executor      string
		sysroot       string
		buildPath     string
		prefix        string
		frameworkPath string
		platform      string
		verbose       bool
		buildTests    bool
		jobs          int
	}

	// session is the effective configuration of one invocation.
	session struct {
		cfg          *config.Config
		sources      []string
		projectDir   string
		manifestPath string
		logger       *log.Logger
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:      deps.Config,
		NewExecutor: deps.NewExecutor,
		workDir:     deps.WorkDir,
		configDir:   deps.ConfigDir,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.NewExecutor == nil {
		app.NewExecutor = defaultExecutor
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func defaultExecutor(path string, stdout, stderr io.Writer, logger *log.Logger) driver.Executor {
	return driver.NewRunner(path, driver.WithOutput(stdout, stderr), driver.WithRunnerLogger(logger))
}

func (f *rootFlagValues) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.configPath, "config", "", "config file (default is the user and project buildgraph.config.cue)")
	flags.StringVar(&f.manifestPath, "manifest", "", "manifest file (default is buildgraph.{cue,toml,hcl} in the working directory)")
	flags.StringVar(&f.compiler, "compiler", "", "Swift compiler driver")
	flags.StringVar(&f.executor, "executor", "", "llbuild-compatible executor that runs the graph")
	flags.StringVar(&f.sysroot, "sysroot", "", "SDK passed to the compiler as -sdk")
	flags.StringVar(&f.buildPath, "build-path", "", "build root, relative to the manifest directory")
	flags.StringVar(&f.prefix, "prefix", "", "install prefix")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&f.frameworkPath, "framework-path", "", "test framework search path")
	flags.BoolVar(&f.buildTests, "build-tests", false, "include test modules")
	flags.StringVar(&f.platform, "platform", "", "target platform family (darwin or linux)")
	flags.IntVar(&f.jobs, "jobs", 0, "compiler threads per module (0 means one per CPU)")
}

// apply copies every explicitly set flag onto cfg.
func (f *rootFlagValues) apply(flags *pflag.FlagSet, cfg *config.Config) {
	strs := map[string]struct {
		src string
		dst *string
	}{
		"compiler":       {f.compiler, &cfg.Compiler},
		"executor":       {f.executor, &cfg.Executor},
		"sysroot":        {f.sysroot, &cfg.Sysroot},
		"build-path":     {f.buildPath, &cfg.BuildPath},
		"prefix":         {f.prefix, &cfg.Prefix},
		"framework-path": {f.frameworkPath, &cfg.FrameworkPath},
		"platform":       {f.platform, &cfg.Platform},
	}
	for name, s := range strs {
		if flags.Changed(name) {
			*s.dst = s.src
		}
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if flags.Changed("build-tests") {
		cfg.BuildTests = f.buildTests
	}
	if flags.Changed("jobs") {
		cfg.Jobs = f.jobs
	}
}

// loadSession resolves the project directory, loads the layered
// configuration and applies flag overrides.
func (app *App) loadSession(cmd *cobra.Command, flags *rootFlagValues) (*session, error) {
	workDir := app.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workDir = wd
	}

	s := &session{projectDir: workDir}
	if flags.manifestPath != "" {
		s.manifestPath = types.FilesystemPath(flags.manifestPath).Resolve(workDir)
		s.projectDir = filepath.Dir(s.manifestPath)
	}

	configPath := flags.configPath
	if configPath != "" {
		configPath = types.FilesystemPath(configPath).Resolve(workDir)
	}
	loaded, err := app.Config.LoadWithSources(cmd.Context(), config.LoadOptions{
		ConfigFilePath: configPath,
		ConfigDirPath:  app.configDir,
		ProjectDir:     s.projectDir,
	})
	if err != nil {
		return nil, err
	}
	s.cfg = loaded.Config
	s.sources = loaded.Sources

	flags.apply(cmd.Flags(), s.cfg)
	if err := s.cfg.Validate(); err != nil {
		return nil, &ExitError{Code: types.ExitUsage, Err: err}
	}
	app.verbose = s.cfg.Verbose

	level := log.InfoLevel
	if s.cfg.Verbose {
		level = log.DebugLevel
	}
	s.logger = log.NewWithOptions(app.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	return s, nil
}

// request builds the generation request for the session.
func (s *session) request() (generate.Request, error) {
	env, err := command.DetectEnvironment(s.cfg.EnvironmentOptions())
	if err != nil {
		return generate.Request{}, &ExitError{Code: types.ExitUsage, Err: err}
	}
	return generate.Request{
		ManifestPath: s.manifestPath,
		ProjectDir:   s.projectDir,
		BuildPath:    s.cfg.BuildPath,
		Env:          env,
		Exclude:      s.cfg.Exclude,
	}, nil
}
