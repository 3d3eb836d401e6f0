// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"testing"
)

func TestFamilyFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos string
		want Family
	}{
		{Darwin, FamilyDarwin},
		{Linux, FamilyLinux},
		{"freebsd", FamilyLinux},
		{Windows, FamilyLinux},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			t.Parallel()
			if got := FamilyFor(tt.goos); got != tt.want {
				t.Errorf("FamilyFor(%q) = %q, want %q", tt.goos, got, tt.want)
			}
		})
	}
}

func TestFamilyIsValid(t *testing.T) {
	t.Parallel()

	if ok, errs := FamilyDarwin.IsValid(); !ok || errs != nil {
		t.Errorf("darwin should be valid, got %v", errs)
	}

	ok, errs := Family("plan9").IsValid()
	if ok {
		t.Fatal("plan9 should not be a valid family")
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidFamily) {
		t.Errorf("expected ErrInvalidFamily, got %v", errs)
	}
}
