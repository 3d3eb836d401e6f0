// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/buildgraph/buildgraph/internal/command"
	"github.com/buildgraph/buildgraph/pkg/platform"
)

const (
	// DefaultExecutor is the llbuild-compatible tool that runs the graph.
	DefaultExecutor = "swift-build-tool"
	// DefaultBuildPath is the build root, relative to the manifest directory.
	DefaultBuildPath = ".build"
	// DefaultPrefix is the install prefix.
	DefaultPrefix = "/usr/local"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
)

type (
	// Config holds the effective buildgraph settings.
	Config struct {
		// Compiler is the Swift compiler driver used for compile and link steps.
		Compiler string `json:"compiler" mapstructure:"compiler"`
		// Executor is the tool that runs the generated graph.
		Executor string `json:"executor" mapstructure:"executor"`
		// Sysroot is passed to the compiler as -sdk when set.
		Sysroot string `json:"sysroot" mapstructure:"sysroot"`
		// BuildPath is the build root. Relative paths resolve against the manifest directory.
		BuildPath string `json:"build_path" mapstructure:"build_path"`
		// Prefix is the install prefix used by the install action.
		Prefix  string `json:"prefix" mapstructure:"prefix"`
		Verbose bool   `json:"verbose" mapstructure:"verbose"`
		// FrameworkPath is the search path for the test framework.
		FrameworkPath string `json:"framework_path" mapstructure:"framework_path"`
		BuildTests    bool   `json:"build_tests" mapstructure:"build_tests"`
		// Platform overrides the host platform family ("darwin" or "linux").
		Platform string `json:"platform" mapstructure:"platform"`
		// Jobs is the compiler thread count. Zero means one per CPU.
		Jobs           int      `json:"jobs" mapstructure:"jobs"`
		BundleIDPrefix string   `json:"bundle_id_prefix" mapstructure:"bundle_id_prefix"`
		Exclude        []string `json:"exclude" mapstructure:"exclude"`
	}

	// InvalidConfigError is returned when a loaded configuration holds a value
	// the schema cannot rule out, e.g. one that came from the environment.
	InvalidConfigError struct {
		Field  string
		Reason string
	}

	// InvalidLoadOptionsError is returned when LoadOptions contains invalid paths.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Compiler:       command.DefaultCompiler,
		Executor:       DefaultExecutor,
		BuildPath:      DefaultBuildPath,
		Prefix:         DefaultPrefix,
		BundleIDPrefix: command.DefaultBundleIDPrefix,
		Exclude:        []string{},
	}
}

// Validate checks the values CUE validation does not see.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Compiler) == "" {
		errs = append(errs, &InvalidConfigError{Field: "compiler", Reason: "must not be empty"})
	}
	if strings.TrimSpace(c.Executor) == "" {
		errs = append(errs, &InvalidConfigError{Field: "executor", Reason: "must not be empty"})
	}
	if strings.TrimSpace(c.BuildPath) == "" {
		errs = append(errs, &InvalidConfigError{Field: "build_path", Reason: "must not be empty"})
	}
	if c.Platform != "" {
		if ok, _ := platform.Family(c.Platform).IsValid(); !ok {
			errs = append(errs, &InvalidConfigError{Field: "platform", Reason: fmt.Sprintf("unknown platform %q", c.Platform)})
		}
	}
	if c.Jobs < 0 {
		errs = append(errs, &InvalidConfigError{Field: "jobs", Reason: "must not be negative"})
	}
	return errors.Join(errs...)
}

// EnvironmentOptions converts the configuration into command assembly options.
func (c *Config) EnvironmentOptions() command.EnvironmentOptions {
	return command.EnvironmentOptions{
		Compiler:       c.Compiler,
		Platform:       c.Platform,
		Jobs:           c.Jobs,
		Sysroot:        c.Sysroot,
		FrameworkPath:  c.FrameworkPath,
		BuildTests:     c.BuildTests,
		BundleIDPrefix: c.BundleIDPrefix,
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config value for %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface.
func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidLoadOptions for errors.Is() compatibility.
func (e *InvalidLoadOptionsError) Unwrap() error { return ErrInvalidLoadOptions }
