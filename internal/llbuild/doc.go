// SPDX-License-Identifier: MPL-2.0

// Package llbuild serializes a build graph into the YAML task description
// read by swift-build-tool (llbuild's "swift-build" client).
//
// The document has four top-level keys in fixed order: client, tools,
// targets and commands. Every scalar is double-quoted and every list is a
// flow sequence, so a given graph always renders to the same bytes.
package llbuild
