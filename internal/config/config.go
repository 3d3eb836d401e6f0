// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/pkg/cueutil"
	"github.com/buildgraph/buildgraph/pkg/platform"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "buildgraph"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "buildgraph.config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. BUILDGRAPH_COMPILER.
	EnvPrefix = "BUILDGRAPH"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the buildgraph configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FileName returns the config file name including its extension.
func FileName() string {
	return ConfigFileName + "." + ConfigFileExt
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. It returns the files that were merged, in order.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, []string, error) {
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var sources []string

	// An explicit --config file is used exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'buildgraph config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := mergeFile(v, opts.ConfigFilePath); err != nil {
			return nil, nil, err
		}
		sources = append(sources, opts.ConfigFilePath)
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, nil, err
		}

		candidates := []string{filepath.Join(cfgDir, FileName())}
		if opts.ProjectDir != "" {
			candidates = append(candidates, filepath.Join(opts.ProjectDir, FileName()))
		}
		for _, path := range candidates {
			if !fileExists(path) || (len(sources) > 0 && samePath(sources[len(sources)-1], path)) {
				continue
			}
			if err := mergeFile(v, path); err != nil {
				return nil, nil, err
			}
			sources = append(sources, path)
		}
		// No config file is fine; defaults and environment still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check BUILDGRAPH_* environment variables for typos").
			WithSuggestion("Use 'buildgraph config show' to inspect the effective configuration").
			Wrap(err).
			BuildError()
	}

	return &cfg, sources, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("compiler", defaults.Compiler)
	v.SetDefault("executor", defaults.Executor)
	v.SetDefault("sysroot", defaults.Sysroot)
	v.SetDefault("build_path", defaults.BuildPath)
	v.SetDefault("prefix", defaults.Prefix)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("framework_path", defaults.FrameworkPath)
	v.SetDefault("build_tests", defaults.BuildTests)
	v.SetDefault("platform", defaults.Platform)
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("bundle_id_prefix", defaults.BundleIDPrefix)
	v.SetDefault("exclude", defaults.Exclude)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

func mergeFile(v *viper.Viper, path string) error {
	if err := loadCUEIntoViper(v, path); err != nil {
		return issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Verify the configuration values match the expected schema").
			WithSuggestion("See 'buildgraph config --help' for configuration options").
			Wrap(err).
			BuildError()
	}
	return nil
}

// loadCUEIntoViper validates a CUE file against #Config and merges its
// contents into Viper. Concrete validation is off because every key is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, data, "#Config",
		cueutil.WithConcrete(false),
		cueutil.WithFilename(path),
	)
	if err != nil {
		return err
	}

	// Merging preserves defaults and still allows env overrides.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file into dir (the user config
// directory when empty) unless one already exists. It returns the file path.
func CreateDefaultConfig(dir string) (string, error) {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, FileName())
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// buildgraph configuration file\n")
	sb.WriteString("// Values here can be overridden by BUILDGRAPH_* environment variables and flags.\n\n")

	fmt.Fprintf(&sb, "compiler: %q\n", cfg.Compiler)
	fmt.Fprintf(&sb, "executor: %q\n", cfg.Executor)
	if cfg.Sysroot != "" {
		fmt.Fprintf(&sb, "sysroot: %q\n", cfg.Sysroot)
	}
	fmt.Fprintf(&sb, "build_path: %q\n", cfg.BuildPath)
	fmt.Fprintf(&sb, "prefix: %q\n", cfg.Prefix)
	fmt.Fprintf(&sb, "verbose: %v\n", cfg.Verbose)
	if cfg.FrameworkPath != "" {
		fmt.Fprintf(&sb, "framework_path: %q\n", cfg.FrameworkPath)
	}
	fmt.Fprintf(&sb, "build_tests: %v\n", cfg.BuildTests)
	if cfg.Platform != "" {
		fmt.Fprintf(&sb, "platform: %q\n", cfg.Platform)
	}
	fmt.Fprintf(&sb, "jobs: %d\n", cfg.Jobs)
	fmt.Fprintf(&sb, "bundle_id_prefix: %q\n", cfg.BundleIDPrefix)

	if len(cfg.Exclude) > 0 {
		sb.WriteString("\nexclude: [\n")
		for _, pattern := range cfg.Exclude {
			fmt.Fprintf(&sb, "\t%q,\n", pattern)
		}
		sb.WriteString("]\n")
	}

	return sb.String()
}
