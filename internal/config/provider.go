// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"

	"github.com/buildgraph/buildgraph/pkg/types"
)

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath string
		// ProjectDir is searched for a project config file layered over the user one.
		ProjectDir string
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
		LoadWithSources(ctx context.Context, opts LoadOptions) (*Loaded, error)
	}

	// Loaded is a configuration together with the files it was read from, in
	// merge order.
	Loaded struct {
		Config  *Config
		Sources []string
	}

	fileProvider struct{}
)

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	loaded, err := LoadWithSources(ctx, opts)
	if err != nil {
		return nil, err
	}
	return loaded.Config, nil
}

// LoadWithSources implements Provider.
func (p *fileProvider) LoadWithSources(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	return LoadWithSources(ctx, opts)
}

// LoadWithSources is Load that also reports which files contributed.
func LoadWithSources(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cfg, sources, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Sources: sources}, nil
}

// Validate rejects whitespace-only paths. Empty fields select defaults.
func (o LoadOptions) Validate() error {
	var errs []error
	check := func(field, value string) {
		if value == "" {
			return
		}
		if ok, pathErrs := types.FilesystemPath(value).IsValid(); !ok {
			for _, err := range pathErrs {
				errs = append(errs, fmt.Errorf("%s: %w", field, err))
			}
		}
	}
	check("ConfigFilePath", o.ConfigFilePath)
	check("ConfigDirPath", o.ConfigDirPath)
	check("ProjectDir", o.ProjectDir)
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}
