// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buildgraph/buildgraph/internal/command"
	"github.com/buildgraph/buildgraph/internal/discovery"
	"github.com/buildgraph/buildgraph/internal/generate"
	"github.com/buildgraph/buildgraph/internal/graph"
	"github.com/buildgraph/buildgraph/internal/llbuild"
	"github.com/buildgraph/buildgraph/internal/manifest"
	"github.com/buildgraph/buildgraph/pkg/platform"
)

const (
	// libraryCount is the number of chained library modules in the
	// synthetic project; each depends on the previous one.
	libraryCount = 24
	// sourcesPerModule is the number of Swift files per module.
	sourcesPerModule = 12
)

var benchEnv = command.Environment{
	Compiler:       command.DefaultCompiler,
	Family:         platform.FamilyLinux,
	NumCPU:         8,
	BuildTests:     true,
	BundleIDPrefix: command.DefaultBundleIDPrefix,
}

// syntheticModules returns a chain of libraries, an executable on top and a
// test module for every library.
func syntheticModules() []manifest.Module {
	var mods []manifest.Module
	for i := range libraryCount {
		m := manifest.Module{Name: fmt.Sprintf("Lib%02d", i), Flags: []string{"-DBENCH"}}
		if i > 0 {
			m.Dependencies = []string{fmt.Sprintf("Lib%02d", i-1)}
		}
		mods = append(mods, m)
	}
	mods = append(mods, manifest.Module{
		Name:           "App",
		Dependencies:   []string{fmt.Sprintf("Lib%02d", libraryCount-1)},
		ExtraLibraries: []string{"m", "pthread"},
	})
	for i := range libraryCount {
		name := fmt.Sprintf("Lib%02d", i)
		mods = append(mods, manifest.Module{Name: name + "Tests", Dependencies: []string{name}, Test: true})
	}
	return mods
}

func cueManifest(mods []manifest.Module) string {
	var sb strings.Builder
	sb.WriteString("modules: [\n")
	for _, m := range mods {
		fmt.Fprintf(&sb, "\t{name: %q", m.Name)
		if len(m.Dependencies) > 0 {
			fmt.Fprintf(&sb, ", dependencies: [%q]", m.Dependencies[0])
		}
		if m.Test {
			sb.WriteString(", test: true")
		}
		sb.WriteString("},\n")
	}
	sb.WriteString("]\n")
	return sb.String()
}

func tomlManifest(mods []manifest.Module) string {
	var sb strings.Builder
	for _, m := range mods {
		fmt.Fprintf(&sb, "[[modules]]\nname = %q\n", m.Name)
		if len(m.Dependencies) > 0 {
			fmt.Fprintf(&sb, "dependencies = [%q]\n", m.Dependencies[0])
		}
		if m.Test {
			sb.WriteString("test = true\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func hclManifest(mods []manifest.Module) string {
	var sb strings.Builder
	for _, m := range mods {
		fmt.Fprintf(&sb, "module %q {\n", m.Name)
		if len(m.Dependencies) > 0 {
			fmt.Fprintf(&sb, "  dependencies = [%q]\n", m.Dependencies[0])
		}
		if m.Test {
			sb.WriteString("  test = true\n")
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

// writeProject lays out the synthetic project under dir and returns the
// manifest path.
func writeProject(b *testing.B, dir string) string {
	b.Helper()
	mods := syntheticModules()
	for _, m := range mods {
		root := m.SourceRoot(dir)
		if err := os.MkdirAll(root, 0o755); err != nil {
			b.Fatalf("Failed to create %s: %v", root, err)
		}
		for i := range sourcesPerModule {
			if err := os.WriteFile(filepath.Join(root, fmt.Sprintf("File%02d.swift", i)), nil, 0o644); err != nil {
				b.Fatalf("Failed to write source: %v", err)
			}
		}
		if m.Name == "App" {
			if err := os.WriteFile(filepath.Join(root, discovery.EntryPointName), nil, 0o644); err != nil {
				b.Fatalf("Failed to write entry point: %v", err)
			}
		}
	}
	path := filepath.Join(dir, manifest.FileBaseName+".cue")
	if err := os.WriteFile(path, []byte(cueManifest(mods)), 0o644); err != nil {
		b.Fatalf("Failed to write manifest: %v", err)
	}
	return path
}

// discoverAll mirrors the discovery step of the generate pipeline.
func discoverAll(b *testing.B, dir string, mods []manifest.Module) []graph.Module {
	b.Helper()
	out := make([]graph.Module, 0, len(mods))
	for _, m := range mods {
		root := m.SourceRoot(dir)
		res, err := discovery.Discover(root, discovery.Options{})
		if err != nil {
			b.Fatalf("Discover failed: %v", err)
		}
		out = append(out, graph.Module{Module: m, Result: res, SourceDir: root})
	}
	return out
}

// BenchmarkManifestParsing benchmarks manifest decoding per format. The CUE
// case includes schema validation.
func BenchmarkManifestParsing(b *testing.B) {
	mods := syntheticModules()
	cases := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"cue", "buildgraph.cue", []byte(cueManifest(mods))},
		{"toml", "buildgraph.toml", []byte(tomlManifest(mods))},
		{"hcl", "buildgraph.hcl", []byte(hclManifest(mods))},
	}
	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			for b.Loop() {
				mf, err := manifest.Parse(tc.data, tc.filename)
				if err != nil {
					b.Fatalf("Parse failed: %v", err)
				}
				if len(mf.Modules) != len(mods) {
					b.Fatalf("got %d modules, want %d", len(mf.Modules), len(mods))
				}
			}
		})
	}
}

// BenchmarkManifestValidation benchmarks module name and format checks.
func BenchmarkManifestValidation(b *testing.B) {
	mf := manifest.New(syntheticModules()...)

	b.ResetTimer()
	for b.Loop() {
		if err := mf.Validate(); err != nil {
			b.Fatalf("Validate failed: %v", err)
		}
	}
}

// BenchmarkDiscovery benchmarks source discovery for every module.
func BenchmarkDiscovery(b *testing.B) {
	dir := b.TempDir()
	writeProject(b, dir)
	mods := syntheticModules()

	b.ResetTimer()
	for b.Loop() {
		discoverAll(b, dir, mods)
	}
}

// BenchmarkGraphBuild benchmarks node construction and dependency ordering.
func BenchmarkGraphBuild(b *testing.B) {
	dir := b.TempDir()
	writeProject(b, dir)
	modules := discoverAll(b, dir, syntheticModules())
	layout := command.NewLayout(filepath.Join(dir, ".build"))

	b.ResetTimer()
	for b.Loop() {
		if _, err := graph.Build(benchEnv, layout, modules); err != nil {
			b.Fatalf("Build failed: %v", err)
		}
	}
}

// BenchmarkRender benchmarks llbuild YAML serialization.
func BenchmarkRender(b *testing.B) {
	dir := b.TempDir()
	writeProject(b, dir)
	modules := discoverAll(b, dir, syntheticModules())
	g, err := graph.Build(benchEnv, command.NewLayout(filepath.Join(dir, ".build")), modules)
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}

	b.ResetTimer()
	for b.Loop() {
		if _, err := llbuild.Render(g); err != nil {
			b.Fatalf("Render failed: %v", err)
		}
	}
}

// BenchmarkFullPipeline benchmarks generate end to end. After the first
// iteration the graph file is unchanged, so this also covers the
// compare-before-write path.
func BenchmarkFullPipeline(b *testing.B) {
	dir := b.TempDir()
	manifestPath := writeProject(b, dir)
	gen := generate.New()
	req := generate.Request{ManifestPath: manifestPath, Env: benchEnv}

	b.ResetTimer()
	for b.Loop() {
		if _, err := gen.Generate(b.Context(), req); err != nil {
			b.Fatalf("Generate failed: %v", err)
		}
	}
}
