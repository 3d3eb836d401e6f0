// SPDX-License-Identifier: MPL-2.0

// Package issue turns pipeline failures into messages a user can act on.
//
// ActionableError records the failed operation, the file or module involved
// and concrete next steps. Errors that map to a known situation also carry an
// issue Id whose Markdown entry the CLI renders with glamour in verbose mode.
package issue
