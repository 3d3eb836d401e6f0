// SPDX-License-Identifier: MPL-2.0

package command

import (
	"github.com/buildgraph/buildgraph/internal/discovery"
	"github.com/buildgraph/buildgraph/internal/manifest"
)

const (
	// LinkLibrary archives objects into a static library.
	LinkLibrary LinkMode = iota
	// LinkExecutable links a program with the compiler driver.
	LinkExecutable
	// LinkTestBundle links a loadable test bundle.
	LinkTestBundle
)

type (
	// Module is a manifest module together with what discovery found in its
	// source root.
	Module struct {
		manifest.Module
		discovery.Result

		// SourceDir is the directory Sources were discovered in.
		SourceDir string
	}

	// LinkMode selects how a module's link node produces its artifact.
	LinkMode int
)

// IsLibrary reports whether the module is compiled as a library, i.e. has
// no entry point.
func (m Module) IsLibrary() bool { return !m.Executable }

// Mode returns how the module is linked under env.
func (m Module) Mode(env Environment) LinkMode {
	switch {
	case m.Test && env.caps().testBundles:
		return LinkTestBundle
	case m.Test, m.Executable:
		return LinkExecutable
	default:
		return LinkLibrary
	}
}

// Artifact is the file a module's link node produces.
func (m Module) Artifact(env Environment, l Layout) string {
	switch m.Mode(env) {
	case LinkTestBundle:
		return l.BundleExecutable(m.Name)
	case LinkExecutable:
		return l.Executable(m.Name)
	default:
		return l.Archive(m.Name)
	}
}

// String returns a human-readable link mode.
func (m LinkMode) String() string {
	switch m {
	case LinkLibrary:
		return "library"
	case LinkExecutable:
		return "executable"
	case LinkTestBundle:
		return "test bundle"
	default:
		return "unknown"
	}
}
