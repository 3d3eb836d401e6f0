// SPDX-License-Identifier: MPL-2.0

// Package graph turns resolved modules into build nodes.
//
// Every module contributes, in order, a barrier node that waits for the
// aliases of its dependencies, a compile node when it has sources, a link
// node and a top-level alias. Node identifiers are derived from the module
// name and role only, so the same input always yields the same graph.
package graph
