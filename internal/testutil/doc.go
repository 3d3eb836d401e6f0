// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers that fail the test on error instead of
// returning it: environment and home directory overrides, project
// scaffolding (MustWriteFile, WriteTree) and file probes (MustStat).
package testutil
