// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the CUE parsing flow shared by the module manifest
// and the configuration file:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode to Go values
//
// # Usage
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	result, err := cueutil.ParseAndDecode[Manifest](
//	    schema,
//	    data,
//	    "#Manifest",
//	    cueutil.WithFilename("buildgraph.cue"),
//	)
//	if err != nil {
//	    return nil, err // error carries the JSON path of the offending field
//	}
//	return result.Value, nil
package cueutil
