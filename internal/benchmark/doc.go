// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the hot paths of graph generation:
//   - manifest decoding in each supported format
//   - source discovery
//   - graph assembly and llbuild serialization
//   - the end-to-end generate pipeline, including the unchanged-file check
//
// To generate a profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
