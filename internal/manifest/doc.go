// SPDX-License-Identifier: MPL-2.0

// Package manifest describes the modules of a project and loads them from a
// buildgraph.cue, buildgraph.toml or buildgraph.hcl file.
package manifest
