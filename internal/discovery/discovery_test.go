// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/buildgraph/buildgraph/internal/testutil"
)

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		files      map[string]string
		opts       Options
		want       []string
		executable bool
	}{
		{
			name:  "library",
			files: map[string]string{"Basic.swift": "", "Util/Strings.swift": "", "README.md": ""},
			want:  []string{"Basic.swift", "Util/Strings.swift"},
		},
		{
			name:       "executable",
			files:      map[string]string{"main.swift": "", "Options.swift": ""},
			want:       []string{"Options.swift", "main.swift"},
			executable: true,
		},
		{
			name:       "nested entry point",
			files:      map[string]string{"App/main.swift": ""},
			want:       []string{"App/main.swift"},
			executable: true,
		},
		{
			name: "excluded directories",
			files: map[string]string{
				"Real.swift":               "",
				".hidden/Secret.swift":     "",
				"Fixtures/Sample.swift":    "",
				"FixturesExtra/main.swift": "",
				"Inputs/Input.swift":       "",
				"Placeholder/Later.swift":  "",
				"Deep/Fixtures/Nest.swift": "",
				"Deep/Kept.swift":          "",
				"NotFixtures/Kept2.swift":  "",
			},
			want: []string{"Deep/Kept.swift", "NotFixtures/Kept2.swift", "Real.swift"},
		},
		{
			name: "user exclude globs",
			files: map[string]string{
				"Core.swift":            "",
				"Generated/Gen.swift":   "",
				"Core/Core+Debug.swift": "",
			},
			opts: Options{Exclude: []string{"Generated", "**/*+Debug.swift"}},
			want: []string{"Core.swift"},
		},
		{
			name:  "full path ordering",
			files: map[string]string{"a/b.swift": "", "a.swift": ""},
			want:  []string{"a.swift", "a/b.swift"},
		},
		{
			name:  "empty root",
			files: map[string]string{"Empty/": ""},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			testutil.WriteTree(t, root, tt.files)

			res, err := Discover(root, tt.opts)
			if err != nil {
				t.Fatalf("Discover() error: %v", err)
			}
			if got := rel(t, root, res.Sources); !slices.Equal(got, tt.want) {
				t.Errorf("Sources = %v, want %v", got, tt.want)
			}
			if res.Executable != tt.executable {
				t.Errorf("Executable = %v, want %v", res.Executable, tt.executable)
			}
		})
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	t.Parallel()

	res, err := Discover(filepath.Join(t.TempDir(), "does-not-exist"), Options{})
	if err != nil {
		t.Fatalf("missing root should not fail, got %v", err)
	}
	if len(res.Sources) != 0 || res.Executable {
		t.Errorf("missing root should be an empty library, got %+v", res)
	}
}

func TestDiscover_RootIsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file.swift")
	testutil.MustWriteFile(t, path, "")
	if _, err := Discover(path, Options{}); err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestDiscover_InvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := Discover(t.TempDir(), Options{Exclude: []string{"[unclosed"}}); err == nil {
		t.Error("expected error for invalid exclude pattern")
	}
}

func TestDiscover_PermissionDenied(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "Locked")
	testutil.WriteTree(t, root, map[string]string{"Locked/Hidden.swift": ""})
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	if _, err := Discover(root, Options{}); err == nil {
		t.Error("unreadable subdirectory should be a fatal error")
	}
}

func TestIsExcludedDir(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		".git":         true,
		".build":       true,
		"Fixtures":     true,
		"FixturesData": true,
		"Inputs":       true,
		"Placeholder":  true,
		"Sources":      false,
		"MyFixtures":   false,
		"InputsExtra":  false,
	}
	for name, want := range tests {
		if got := IsExcludedDir(name); got != want {
			t.Errorf("IsExcludedDir(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestDiscover_SymlinkedRoot(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	target := filepath.Join(base, "Checkout", "App")
	testutil.WriteTree(t, target, map[string]string{"main.swift": "", "Util.swift": ""})
	link := filepath.Join(base, "Sources", "App")
	testutil.MustMkdirAll(t, filepath.Dir(link), 0o755)
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	res, err := Discover(link, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	want := []string{filepath.Join(link, "Util.swift"), filepath.Join(link, "main.swift")}
	if !slices.Equal(res.Sources, want) {
		t.Errorf("Sources = %v, want %v", res.Sources, want)
	}
	if !res.Executable {
		t.Error("symlinked root with main.swift should be executable")
	}
}
