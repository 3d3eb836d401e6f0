// SPDX-License-Identifier: MPL-2.0

// Package driver implements the clean, all, test and install actions around
// the generated graph: it regenerates the graph, hands it to the external
// incremental executor and copies finished executables into the install
// prefix. Compilation and linking themselves are always left to the executor.
package driver
