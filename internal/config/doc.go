// SPDX-License-Identifier: MPL-2.0

// Package config handles buildgraph configuration using Viper with CUE as the file format.
//
// Configuration is layered: built-in defaults, then the user file
// buildgraph.config.cue in the config directory (~/.config/buildgraph on Linux,
// ~/Library/Application Support/buildgraph on macOS, %APPDATA%\buildgraph on Windows),
// then a buildgraph.config.cue next to the manifest, then BUILDGRAPH_* environment
// variables. Command-line flags are applied on top by the CLI.
//
// Every file is validated against the embedded #Config schema (config_schema.cue)
// before it is merged.
package config
