// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/buildgraph/buildgraph/pkg/platform"
)

const (
	// DefaultCompiler is used when no compiler path is configured.
	DefaultCompiler = "swiftc"

	// DefaultBundleIDPrefix prefixes the CFBundleIdentifier of test bundles.
	DefaultBundleIDPrefix = "org.swift.buildgraph"
)

type (
	// Environment holds every host- and option-derived input of command
	// assembly. It is built once per invocation and never modified.
	Environment struct {
		Compiler       string
		Family         platform.Family
		NumCPU         int
		Sysroot        string
		FrameworkPath  string
		BuildTests     bool
		BundleIDPrefix string
	}

	// EnvironmentOptions are the user-controlled parts of an Environment.
	// Zero values select host defaults.
	EnvironmentOptions struct {
		Compiler       string
		Platform       string
		Jobs           int
		Sysroot        string
		FrameworkPath  string
		BuildTests     bool
		BundleIDPrefix string
	}
)

// DetectEnvironment probes the host once and applies opts on top.
func DetectEnvironment(opts EnvironmentOptions) (Environment, error) {
	env := Environment{
		Compiler:       opts.Compiler,
		Family:         platform.FamilyFor(runtime.GOOS),
		NumCPU:         runtime.NumCPU(),
		Sysroot:        opts.Sysroot,
		FrameworkPath:  opts.FrameworkPath,
		BuildTests:     opts.BuildTests,
		BundleIDPrefix: opts.BundleIDPrefix,
	}
	if env.Compiler == "" {
		env.Compiler = DefaultCompiler
	}
	if env.BundleIDPrefix == "" {
		env.BundleIDPrefix = DefaultBundleIDPrefix
	}
	if opts.Platform != "" {
		env.Family = platform.Family(opts.Platform)
	}
	if opts.Jobs > 0 {
		env.NumCPU = opts.Jobs
	}

	if err := env.Validate(); err != nil {
		return Environment{}, err
	}
	return env, nil
}

// Validate checks the platform family and processor count.
func (e Environment) Validate() error {
	if ok, errs := e.Family.IsValid(); !ok {
		return errors.Join(errs...)
	}
	if e.NumCPU < 1 {
		return fmt.Errorf("invalid processor count %d", e.NumCPU)
	}
	if e.Compiler == "" {
		return errors.New("compiler path must not be empty")
	}
	return nil
}

func (e Environment) caps() capabilities {
	return capabilityTable[e.Family]
}
