// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// SourceExtension identifies source files.
	SourceExtension = ".swift"

	// EntryPointName is the file whose presence makes a module an executable.
	EntryPointName = "main.swift"

	// FixturesPrefix marks directories holding test fixtures.
	FixturesPrefix = "Fixtures"
)

// reservedDirNames are placeholder directories never treated as sources.
var reservedDirNames = []string{"Inputs", "Placeholder"}

type (
	// Options tunes a discovery walk.
	Options struct {
		// Exclude holds doublestar patterns, relative to the source root and
		// slash-separated, for files or directories to skip.
		Exclude []string
	}

	// Result is the outcome of discovering one module's sources.
	Result struct {
		// Sources are the source files, sorted by full path.
		Sources []string
		// Executable is true when one of Sources is named EntryPointName.
		Executable bool
	}
)

// IsExcludedDir reports whether a directory with the given base name is
// skipped: hidden directories, fixture directories and reserved placeholders.
func IsExcludedDir(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, FixturesPrefix) ||
		slices.Contains(reservedDirNames, name)
}

// Discover walks root and returns its sources. A missing root is not an
// error; it yields an empty library.
func Discover(root string, opts Options) (Result, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return Result{}, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat source root %s: %w", root, err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("source root %s is not a directory", root)
	}

	// WalkDir does not descend into a symlinked root, so walk its target and
	// report paths under root.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve source root %s: %w", root, err)
	}

	var res Result
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == walkRoot {
			return nil
		}

		rel, relErr := filepath.Rel(walkRoot, path)
		if relErr != nil {
			return relErr
		}
		excluded := matchesAny(opts.Exclude, filepath.ToSlash(rel))

		if d.IsDir() {
			if excluded || IsExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded || filepath.Ext(path) != SourceExtension {
			return nil
		}

		res.Sources = append(res.Sources, filepath.Join(root, rel))
		if d.Name() == EntryPointName {
			res.Executable = true
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to discover sources in %s: %w", root, err)
	}

	// WalkDir's per-directory ordering differs from full-path ordering
	// ("a/b.swift" is visited before "a.swift").
	slices.Sort(res.Sources)
	return res, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
