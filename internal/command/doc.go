// SPDX-License-Identifier: MPL-2.0

// Package command assembles the compiler and linker invocations of a module.
// Everything here is a pure function of the module, the Environment and the
// Layout; commands are kept as structured argument lists and are only
// flattened into shell strings when the graph is serialized.
package command
