// SPDX-License-Identifier: MPL-2.0

// Package generate runs the graph generation pipeline: load the manifest,
// discover each module's sources, build the node graph, render it as an
// llbuild task description and write it (plus any test bundle metadata)
// under the build root. Every configuration error is detected before the
// first write, so a failed run leaves the build root untouched.
package generate
