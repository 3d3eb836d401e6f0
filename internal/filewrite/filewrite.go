// SPDX-License-Identifier: MPL-2.0

// Package filewrite writes generated files only when their content changes,
// so that unchanged outputs keep their modification time and the executor
// can skip work that depends on them.
package filewrite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPerm is the permission used for generated files.
const DefaultPerm os.FileMode = 0o644

// WriteIfChanged writes content to path unless the file already holds
// exactly those bytes. A missing or unreadable file counts as empty.
// Parent directories are created as needed. It reports whether the file
// was written.
func WriteIfChanged(path string, content []byte, perm os.FileMode) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := replace(path, content, perm); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// replace writes content to a temporary file next to path and renames it
// into place, so an interrupted write never leaves a truncated file.
func replace(path string, content []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// EnsureDirs creates every directory in paths. Existing directories are not
// an error.
func EnsureDirs(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", p, err)
		}
	}
	return nil
}
