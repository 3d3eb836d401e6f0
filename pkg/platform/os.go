// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

const (
	// FamilyDarwin covers Apple platforms: test modules link into .xctest bundles
	// and every compile carries an explicit target triple.
	FamilyDarwin Family = "darwin"
	// FamilyLinux covers Linux and other ELF platforms: test modules link as plain
	// executables and static archives are force-loaded with --whole-archive.
	FamilyLinux Family = "linux"
)

// ErrInvalidFamily is the sentinel error wrapped by InvalidFamilyError.
var ErrInvalidFamily = errors.New("invalid platform family")

type (
	// Family identifies a group of operating systems that share compiler and
	// linker conventions.
	Family string

	// InvalidFamilyError is returned when a Family value is not recognized.
	// It wraps ErrInvalidFamily for errors.Is() compatibility.
	InvalidFamilyError struct {
		Value Family
	}
)

// FamilyFor returns the platform family for a runtime.GOOS value. Every
// non-Apple OS falls back to the Linux conventions.
func FamilyFor(goos string) Family {
	if goos == Darwin {
		return FamilyDarwin
	}
	return FamilyLinux
}

// String returns the string representation of the Family.
func (f Family) String() string { return string(f) }

// IsValid returns whether the Family is one of the defined families.
func (f Family) IsValid() (bool, []error) {
	switch f {
	case FamilyDarwin, FamilyLinux:
		return true, nil
	default:
		return false, []error{&InvalidFamilyError{Value: f}}
	}
}

// Error implements the error interface for InvalidFamilyError.
func (e *InvalidFamilyError) Error() string {
	return fmt.Sprintf("invalid platform family %q (valid: darwin, linux)", e.Value)
}

// Unwrap returns ErrInvalidFamily for errors.Is() compatibility.
func (e *InvalidFamilyError) Unwrap() error { return ErrInvalidFamily }
