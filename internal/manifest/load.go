// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/buildgraph/buildgraph/pkg/cueutil"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
)

// FileBaseName is the manifest file name without extension.
const FileBaseName = "buildgraph"

var (
	//go:embed manifest_schema.cue
	manifestSchema []byte

	// ErrManifestNotFound is returned by Find when no manifest file exists.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrUnknownExtension is returned by Load for files it cannot decode.
	ErrUnknownExtension = errors.New("unknown manifest file extension")

	// Extensions lists the supported manifest formats in lookup order.
	Extensions = []string{".cue", ".toml", ".hcl"}
)

// Find returns the first buildgraph.{cue,toml,hcl} in dir.
func Find(dir string) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, FileBaseName+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s.{cue,toml,hcl})", ErrManifestNotFound, dir, FileBaseName)
}

// Load reads, decodes and validates the manifest at path. The returned
// manifest's Dir is the directory containing the file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	mf, err := Parse(data, path)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path %s: %w", path, err)
	}
	mf.Dir = filepath.Dir(absPath)
	return mf, nil
}

// Parse decodes manifest content, choosing the decoder from filename's
// extension, and validates the result.
func Parse(data []byte, filename string) (*Manifest, error) {
	var (
		mf  *Manifest
		err error
	)
	switch ext := filepath.Ext(filename); ext {
	case ".cue":
		mf, err = parseCUE(data, filename)
	case ".toml":
		mf, err = parseTOML(data, filename)
	case ".hcl":
		mf, err = parseHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
	}
	if err != nil {
		return nil, err
	}

	if mf.Format == "" {
		mf.Format = DefaultFormat
	}
	if err := mf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mf, nil
}

func parseCUE(data []byte, filename string) (*Manifest, error) {
	result, err := cueutil.ParseAndDecode[Manifest](manifestSchema, data, "#Manifest",
		cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

func parseTOML(data []byte, filename string) (*Manifest, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	var mf Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("failed to decode TOML manifest %s: %w", filename, err)
	}
	return &mf, nil
}

func parseHCL(data []byte, filename string) (*Manifest, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL manifest %s: %w", filename, diags)
	}

	var mf Manifest
	diags = gohcl.DecodeBody(file.Body, nil, &mf)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL manifest %s: %w", filename, diags)
	}
	return &mf, nil
}
