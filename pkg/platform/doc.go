// SPDX-License-Identifier: MPL-2.0

// Package platform maps host operating systems onto the platform families that
// command assembly branches on.
package platform
