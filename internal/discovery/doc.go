// SPDX-License-Identifier: MPL-2.0

// Package discovery finds the Swift sources of a module and classifies the
// module as a library or an executable.
package discovery
