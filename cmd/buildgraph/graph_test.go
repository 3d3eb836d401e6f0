// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/buildgraph/buildgraph/internal/config"
	"github.com/buildgraph/buildgraph/internal/testutil"
)

func TestGraph_Stdout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.run("graph", "--stdout"); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if !strings.HasPrefix(env.stdout.String(), "client:") {
		t.Errorf("stdout should start with the graph, got %q", env.stdout.String())
	}
	if _, err := os.Stat(filepath.Join(env.dir, ".build")); !os.IsNotExist(err) {
		t.Errorf("--stdout must not create the build root, stat err = %v", err)
	}
	if len(env.exec.calls) != 0 {
		t.Error("graph must not run the executor")
	}
}

func TestGraph_WritesThenUpToDate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.run("graph"); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Wrote") {
		t.Errorf("first run should write the graph: %q", env.stdout.String())
	}

	env.stdout.Reset()
	if err := env.run("graph"); err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "is up to date") {
		t.Errorf("second run should report an unchanged graph: %q", env.stdout.String())
	}
}

func TestGraph_WatchAndStdoutExclusive(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.run("graph", "--watch", "--stdout"); err == nil {
		t.Fatal("expected --watch and --stdout to be rejected together")
	}
}

func TestWatchPatterns(t *testing.T) {
	t.Parallel()

	patterns := watchPatterns()
	for _, want := range []string{"**/*.swift", "buildgraph.cue", "buildgraph.toml", "buildgraph.hcl", config.FileName()} {
		if !slices.Contains(patterns, want) {
			t.Errorf("watchPatterns() = %v, missing %q", patterns, want)
		}
	}
}

func TestBuildRootIgnore(t *testing.T) {
	t.Parallel()

	project := filepath.Join(string(filepath.Separator), "src", "proj")
	tests := []struct {
		buildPath string
		want      []string
	}{
		{"", []string{".build/**"}},
		{"out/debug", []string{"out/debug/**"}},
		{".", nil},
		{filepath.Join(string(filepath.Separator), "tmp", "build"), nil},
		{filepath.Join("..", "sibling"), nil},
	}
	for _, tt := range tests {
		if got := buildRootIgnore(project, tt.buildPath); !slices.Equal(got, tt.want) {
			t.Errorf("buildRootIgnore(%q) = %v, want %v", tt.buildPath, got, tt.want)
		}
	}
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	projectCfg := filepath.Join(env.dir, config.FileName())
	testutil.MustWriteFile(t, projectCfg, "jobs: 3\n")

	if err := env.run("config", "show", "--compiler", "/opt/swift/bin/swiftc"); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	out := env.stdout.String()
	for _, want := range []string{projectCfg, `compiler: "/opt/swift/bin/swiftc"`, "jobs: 3", `platform: "linux"`} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.run("config", "init", "--project"); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	path := filepath.Join(env.dir, config.FileName())
	testutil.MustStat(t, path)

	// The generated file must load back cleanly.
	env.stdout.Reset()
	if err := env.run("config", "show"); err != nil {
		t.Fatalf("config show after init: %v", err)
	}
	if !strings.Contains(env.stdout.String(), path) {
		t.Errorf("generated file should be a config source:\n%s", env.stdout.String())
	}
}

func TestRegenerator_ReloadsConfig(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	root := NewRootCommand(env.app)
	root.SetContext(context.Background())
	regenerate := regenerator(root, env.app, &rootFlagValues{})
	graphPath := filepath.Join(env.dir, ".build", "build.yaml")

	testutil.MustWriteFile(t, filepath.Join(env.dir, config.FileName()), "platform: \"linux\"\njobs: 3\n")
	regenerate(context.Background())
	if data, err := os.ReadFile(graphPath); err != nil || !strings.Contains(string(data), "-j3") {
		t.Fatalf("first graph should use jobs 3 (err %v)", err)
	}

	testutil.MustWriteFile(t, filepath.Join(env.dir, config.FileName()), "platform: \"linux\"\njobs: 5\n")
	regenerate(context.Background())
	data, err := os.ReadFile(graphPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "-j5") || strings.Contains(string(data), "-j3") {
		t.Errorf("regenerated graph should pick up the edited config:\n%s", data)
	}
	if env.stderr.Len() != 0 {
		t.Errorf("unexpected errors: %s", env.stderr.String())
	}
}
