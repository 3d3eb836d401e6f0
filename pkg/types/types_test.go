// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code      ExitCode
		wantValid bool
		want      ExitCode
	}{
		{ExitSuccess, true, ExitSuccess},
		{ExitUsage, true, ExitUsage},
		{255, true, 255},
		{-1, false, ExitFailure},
		{256, false, ExitFailure},
	}
	for _, tt := range tests {
		err := tt.code.Validate()
		if (err == nil) != tt.wantValid {
			t.Errorf("ExitCode(%d).Validate() = %v, wantValid %v", tt.code, err, tt.wantValid)
		}
		if err != nil && !errors.Is(err, ErrInvalidExitCode) {
			t.Errorf("error does not wrap ErrInvalidExitCode: %v", err)
		}
		if got := tt.code.Normalize(); got != tt.want {
			t.Errorf("ExitCode(%d).Normalize() = %d, want %d", tt.code, got, tt.want)
		}
	}

	if !ExitSuccess.IsSuccess() || ExitFailure.IsSuccess() {
		t.Error("IsSuccess() should only hold for zero")
	}
	if ExitUsage.String() != "2" {
		t.Errorf("String() = %q", ExitUsage.String())
	}
}

func TestFilesystemPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path      FilesystemPath
		wantValid bool
	}{
		{"/usr/local", true},
		{".build", true},
		{"", false},
		{" \t ", false},
	}
	for _, tt := range tests {
		ok, errs := tt.path.IsValid()
		if ok != tt.wantValid {
			t.Errorf("FilesystemPath(%q).IsValid() = %v, want %v", tt.path, ok, tt.wantValid)
		}
		if !ok && (len(errs) != 1 || !errors.Is(errs[0], ErrInvalidFilesystemPath)) {
			t.Errorf("FilesystemPath(%q) errors = %v", tt.path, errs)
		}
	}

	base := filepath.FromSlash("/proj")
	if got := FilesystemPath("out").Resolve(base); got != filepath.Join(base, "out") {
		t.Errorf("Resolve(relative) = %q", got)
	}
	abs, _ := filepath.Abs(filepath.FromSlash("/abs/out/"))
	if got := FilesystemPath(abs).Resolve(base); got != filepath.Clean(abs) {
		t.Errorf("Resolve(absolute) = %q", got)
	}
}
