// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/buildgraph/buildgraph/pkg/platform"

	"github.com/Masterminds/semver/v3"
)

const (
	// DefaultFormat is assumed when a manifest does not declare a format.
	DefaultFormat = "1.0.0"

	// SupportedFormats is the semver constraint a manifest format must satisfy.
	SupportedFormats = ">= 1.0.0, < 2.0.0"

	// AggregateName is reserved for the build-everything target.
	AggregateName = "all"

	sourcesDir = "Sources"
	testsDir   = "Tests"
)

var (
	// ErrInvalidModule is the sentinel error wrapped by InvalidModuleError.
	ErrInvalidModule = errors.New("invalid module")

	// ErrUnsupportedFormat is the sentinel error wrapped by UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// Module names become file names (lib<Name>.a, <Name>.swiftmodule) and
	// node identifiers, so they are restricted to identifier characters.
	moduleNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type (
	// Module describes one buildable unit. It is not modified after loading.
	Module struct {
		Name           string   `json:"name"                      toml:"name"                      hcl:"name,label"`
		Dependencies   []string `json:"dependencies,omitempty"    toml:"dependencies,omitempty"    hcl:"dependencies,optional"`
		Path           string   `json:"path,omitempty"            toml:"path,omitempty"            hcl:"path,optional"`
		Flags          []string `json:"flags,omitempty"           toml:"flags,omitempty"           hcl:"flags,optional"`
		ExtraLibraries []string `json:"extra_libraries,omitempty" toml:"extra_libraries,omitempty" hcl:"extra_libraries,optional"`
		Test           bool     `json:"test,omitempty"            toml:"test,omitempty"            hcl:"test,optional"`
	}

	// Manifest is the ordered list of modules of a project.
	Manifest struct {
		Format  string   `json:"format,omitempty" toml:"format,omitempty" hcl:"format,optional"`
		Modules []Module `json:"modules"          toml:"modules"          hcl:"module,block"`

		// Dir is the project directory source roots are resolved against.
		// Set by Load; empty for in-memory manifests.
		Dir string `json:"-" toml:"-"`
	}

	// InvalidModuleError is returned when a module declaration is malformed.
	InvalidModuleError struct {
		Module string
		Reason string
	}

	// UnsupportedFormatError is returned when the manifest format version is
	// not understood by this build of the tool.
	UnsupportedFormatError struct {
		Format string
		Cause  error
	}
)

// New returns an in-memory manifest in the default format.
func New(modules ...Module) *Manifest {
	return &Manifest{Format: DefaultFormat, Modules: modules}
}

// Error implements the error interface.
func (e *InvalidModuleError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("invalid module: %s", e.Reason)
	}
	return fmt.Sprintf("invalid module %q: %s", e.Module, e.Reason)
}

// Unwrap returns ErrInvalidModule for errors.Is.
func (e *InvalidModuleError) Unwrap() error { return ErrInvalidModule }

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unsupported manifest format %q: %v", e.Format, e.Cause)
	}
	return fmt.Sprintf("unsupported manifest format %q (supported: %s)", e.Format, SupportedFormats)
}

// Unwrap returns ErrUnsupportedFormat for errors.Is.
func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// SourceRoot returns the directory the module's sources are discovered in:
// the explicit Path if set, otherwise Sources/<Name> (Tests/<Name> for test
// modules), relative to projectDir.
func (m Module) SourceRoot(projectDir string) string {
	if m.Path != "" {
		if filepath.IsAbs(m.Path) {
			return filepath.Clean(m.Path)
		}
		return filepath.Join(projectDir, m.Path)
	}
	if m.Test {
		return filepath.Join(projectDir, testsDir, m.Name)
	}
	return filepath.Join(projectDir, sourcesDir, m.Name)
}

// Validate checks the module in isolation.
func (m Module) Validate() error {
	switch {
	case m.Name == "":
		return &InvalidModuleError{Reason: "name must not be empty"}
	case m.Name == AggregateName:
		return &InvalidModuleError{Module: m.Name, Reason: "name is reserved for the aggregate target"}
	case !moduleNameRegex.MatchString(m.Name):
		return &InvalidModuleError{Module: m.Name, Reason: "name must be an identifier (letters, digits, underscore)"}
	case platform.IsWindowsReservedName(m.Name):
		return &InvalidModuleError{Module: m.Name, Reason: "name is a reserved device name on Windows"}
	}
	for _, dep := range m.Dependencies {
		if dep == m.Name {
			return &InvalidModuleError{Module: m.Name, Reason: "module depends on itself"}
		}
	}
	return nil
}

// Validate checks the format version and every module, and rejects duplicate
// names. All problems are reported together. Dependency resolution happens
// when the graph is built.
func (mf *Manifest) Validate() error {
	var errs []error
	if err := CheckFormat(mf.Format); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(mf.Modules))
	for _, m := range mf.Modules {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[m.Name] {
			errs = append(errs, &InvalidModuleError{Module: m.Name, Reason: "declared more than once"})
			continue
		}
		seen[m.Name] = true
	}
	return errors.Join(errs...)
}

// CheckFormat verifies that format satisfies SupportedFormats. An empty
// format is treated as DefaultFormat.
func CheckFormat(format string) error {
	if format == "" {
		return nil
	}
	v, err := semver.NewVersion(format)
	if err != nil {
		return &UnsupportedFormatError{Format: format, Cause: err}
	}
	c, err := semver.NewConstraint(SupportedFormats)
	if err != nil {
		return fmt.Errorf("internal error: bad format constraint: %w", err)
	}
	if !c.Check(v) {
		return &UnsupportedFormatError{Format: format}
	}
	return nil
}
