// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/buildgraph/buildgraph/internal/discovery"
	"github.com/buildgraph/buildgraph/internal/manifest"
	"github.com/buildgraph/buildgraph/pkg/platform"
)

func testEnv(family platform.Family) Environment {
	return Environment{
		Compiler:       "/usr/bin/swiftc",
		Family:         family,
		NumCPU:         8,
		BundleIDPrefix: DefaultBundleIDPrefix,
	}
}

func testModule(name string, sources ...string) Module {
	root := filepath.Join("/proj", "Sources", name)
	m := Module{Module: manifest.Module{Name: name}, SourceDir: root}
	for _, s := range sources {
		m.Sources = append(m.Sources, filepath.Join(root, s))
		if s == discovery.EntryPointName {
			m.Executable = true
		}
	}
	return m
}

func containsSeq(args, seq []string) bool {
	for i := 0; i+len(seq) <= len(args); i++ {
		if slices.Equal(args[i:i+len(seq)], seq) {
			return true
		}
	}
	return false
}

func TestDetectEnvironment(t *testing.T) {
	t.Parallel()

	env, err := DetectEnvironment(EnvironmentOptions{})
	if err != nil {
		t.Fatalf("DetectEnvironment() error: %v", err)
	}
	if env.Compiler != DefaultCompiler || env.BundleIDPrefix != DefaultBundleIDPrefix {
		t.Errorf("defaults not applied: %+v", env)
	}
	if env.NumCPU < 1 {
		t.Errorf("NumCPU = %d", env.NumCPU)
	}

	env, err = DetectEnvironment(EnvironmentOptions{Platform: "darwin", Jobs: 3, Compiler: "swiftc-5"})
	if err != nil {
		t.Fatalf("DetectEnvironment() error: %v", err)
	}
	if env.Family != platform.FamilyDarwin || env.NumCPU != 3 || env.Compiler != "swiftc-5" {
		t.Errorf("overrides not applied: %+v", env)
	}

	if _, err := DetectEnvironment(EnvironmentOptions{Platform: "plan9"}); !errors.Is(err, platform.ErrInvalidFamily) {
		t.Errorf("unknown platform should fail with ErrInvalidFamily, got %v", err)
	}
}

func TestLayout(t *testing.T) {
	t.Parallel()

	l := NewLayout("/b")
	tests := []struct {
		got, want string
	}{
		{l.GraphFile(), "/b/build.yaml"},
		{l.Archive("Basic"), "/b/lib/libBasic.a"},
		{l.Executable("App"), "/b/bin/App"},
		{l.Interface("Basic"), "/b/modules/Basic.swiftmodule"},
		{l.BuildDir("Basic"), "/b/Basic.build"},
		{l.BundleExecutable("T"), "/b/bin/T.xctest/Contents/MacOS/T"},
		{l.BundleInfoPlist("T"), "/b/bin/T.xctest/Contents/Info.plist"},
		{l.Object("Basic", "/src/Basic", "/src/Basic/Util/Str.swift"), "/b/Basic.build/Util/Str.o"},
		{l.Object("Basic", "/src/Basic", "/elsewhere/X.swift"), "/b/Basic.build/X.o"},
	}
	for _, tt := range tests {
		if tt.got != filepath.FromSlash(tt.want) {
			t.Errorf("got %q, want %q", tt.got, filepath.FromSlash(tt.want))
		}
	}
}

func TestModule_Mode(t *testing.T) {
	t.Parallel()

	lib := testModule("Basic", "Basic.swift")
	exe := testModule("App", "main.swift")
	test := testModule("BasicTests", "BasicTests.swift")
	test.Test = true

	tests := []struct {
		module Module
		family platform.Family
		want   LinkMode
	}{
		{lib, platform.FamilyLinux, LinkLibrary},
		{lib, platform.FamilyDarwin, LinkLibrary},
		{exe, platform.FamilyLinux, LinkExecutable},
		{test, platform.FamilyLinux, LinkExecutable},
		{test, platform.FamilyDarwin, LinkTestBundle},
		{testModule("Empty"), platform.FamilyLinux, LinkLibrary},
	}
	for _, tt := range tests {
		if got := tt.module.Mode(testEnv(tt.family)); got != tt.want {
			t.Errorf("%s on %s: Mode() = %v, want %v", tt.module.Name, tt.family, got, tt.want)
		}
	}
}

func TestCompile(t *testing.T) {
	t.Parallel()

	l := NewLayout("/b")
	m := testModule("Basic", "Basic.swift", "Util/Str.swift")
	m.Flags = []string{"-DDEBUG"}

	c := Compile(testEnv(platform.FamilyLinux), l, m)
	if !c.IsLibrary || c.NumThreads != 8 || c.ModuleName != "Basic" {
		t.Errorf("unexpected command: %+v", c)
	}
	if want := []string{"-Onone", "-g", "-j8", "-DDEBUG"}; !slices.Equal(c.OtherArgs, want) {
		t.Errorf("OtherArgs = %v, want %v", c.OtherArgs, want)
	}
	wantOutputs := []string{
		filepath.FromSlash("/b/modules/Basic.swiftmodule"),
		filepath.FromSlash("/b/Basic.build/Basic.o"),
		filepath.FromSlash("/b/Basic.build/Util/Str.o"),
	}
	if !slices.Equal(c.Outputs(), wantOutputs) {
		t.Errorf("Outputs() = %v, want %v", c.Outputs(), wantOutputs)
	}
	if !slices.Contains(c.Args(), "-parse-as-library") {
		t.Errorf("library compile should parse as library: %v", c.Args())
	}
}

func TestCompile_PlatformFlags(t *testing.T) {
	t.Parallel()

	l := NewLayout("/b")
	m := testModule("BasicTests", "BasicTests.swift")
	m.Test = true

	darwin := testEnv(platform.FamilyDarwin)
	darwin.FrameworkPath = "/fw"
	darwin.Sysroot = "/sdk"
	c := Compile(darwin, l, m)
	for _, seq := range [][]string{{"-F", "/fw"}, {"-sdk", "/sdk"}, {"-target", "x86_64-apple-macosx10.10"}} {
		if !containsSeq(c.OtherArgs, seq) {
			t.Errorf("darwin compile missing %v: %v", seq, c.OtherArgs)
		}
	}

	linux := testEnv(platform.FamilyLinux)
	linux.FrameworkPath = "/fw"
	c = Compile(linux, l, m)
	if !containsSeq(c.OtherArgs, []string{"-I", "/fw"}) {
		t.Errorf("linux compile missing -I /fw: %v", c.OtherArgs)
	}
	if slices.Contains(c.OtherArgs, "-target") {
		t.Errorf("linux compile should not pass a target triple: %v", c.OtherArgs)
	}

	exe := Compile(linux, l, testModule("App", "main.swift"))
	if exe.IsLibrary || slices.Contains(exe.Args(), "-parse-as-library") {
		t.Error("executable module must not be compiled as a library")
	}
}

func TestLink_Library(t *testing.T) {
	t.Parallel()

	l := NewLayout("/b")
	objs := []string{"/b/Basic.build/Basic.o"}
	cmd := Link(testEnv(platform.FamilyLinux), l, testModule("Basic", "Basic.swift"), objs, nil, nil)

	archive := filepath.FromSlash("/b/lib/libBasic.a")
	if cmd.Mode != LinkLibrary || cmd.Output != archive {
		t.Fatalf("unexpected link: %+v", cmd)
	}
	want := [][]string{{"rm", "-f", archive}, {"ar", "cr", archive, "/b/Basic.build/Basic.o"}}
	if len(cmd.Steps) != 2 || !slices.Equal(cmd.Steps[0], want[0]) || !slices.Equal(cmd.Steps[1], want[1]) {
		t.Errorf("Steps = %v, want %v", cmd.Steps, want)
	}
}

func TestLink_EmptyLibrary(t *testing.T) {
	t.Parallel()

	cmd := Link(testEnv(platform.FamilyLinux), NewLayout("/b"), testModule("Empty"), nil, nil, nil)
	if cmd.Mode != LinkLibrary {
		t.Fatalf("Mode = %v, want library", cmd.Mode)
	}
	if got := cmd.Steps[1]; len(got) != 3 {
		t.Errorf("empty archive step should have no objects: %v", got)
	}
}

func TestLink_Executable(t *testing.T) {
	t.Parallel()

	l := NewLayout("/b")
	m := testModule("App", "main.swift")
	archives := []string{"/b/lib/libA.a", "/b/lib/libB.a"}
	libs := []string{"-lz"}

	linux := Link(testEnv(platform.FamilyLinux), l, m, []string{"/b/App.build/main.o"}, archives, libs)
	args := linux.Steps[0]
	want := []string{"-Xlinker", "--whole-archive", "/b/lib/libA.a", "/b/lib/libB.a", "-Xlinker", "--no-whole-archive", "-lz"}
	if !containsSeq(args, want) {
		t.Errorf("linux link args = %v, want sequence %v", args, want)
	}
	if args[0] != "/usr/bin/swiftc" || !containsSeq(args, []string{"-o", filepath.FromSlash("/b/bin/App")}) {
		t.Errorf("linux link should drive the compiler to bin/App: %v", args)
	}

	darwin := Link(testEnv(platform.FamilyDarwin), l, m, nil, archives, nil)
	if slices.Contains(darwin.Steps[0], "--whole-archive") {
		t.Errorf("darwin link should not force whole archives: %v", darwin.Steps[0])
	}
	if darwin.Bundle != nil {
		t.Error("plain executable should not carry a bundle")
	}
}

func TestLink_TestBundle(t *testing.T) {
	t.Parallel()

	l := NewLayout("/b")
	m := testModule("BasicTests", "BasicTests.swift")
	m.Test = true
	env := testEnv(platform.FamilyDarwin)
	env.FrameworkPath = "/fw"

	cmd := Link(env, l, m, nil, []string{"/b/lib/libBasic.a"}, nil)
	if cmd.Mode != LinkTestBundle {
		t.Fatalf("Mode = %v, want test bundle", cmd.Mode)
	}
	if cmd.Output != filepath.FromSlash("/b/bin/BasicTests.xctest/Contents/MacOS/BasicTests") {
		t.Errorf("Output = %q", cmd.Output)
	}
	args := cmd.Steps[0]
	for _, seq := range [][]string{{"-Xlinker", "-bundle"}, {"-F", "/fw"}, {"-Xlinker", "-rpath", "-Xlinker", "/fw"}} {
		if !containsSeq(args, seq) {
			t.Errorf("bundle link missing %v: %v", seq, args)
		}
	}
	if cmd.Bundle == nil || cmd.Bundle.Identifier != "org.swift.buildgraph.BasicTests" {
		t.Fatalf("Bundle = %+v", cmd.Bundle)
	}

	plist, err := cmd.Bundle.InfoPlist()
	if err != nil {
		t.Fatalf("InfoPlist() error: %v", err)
	}
	for _, want := range []string{"<string>BasicTests</string>", "<string>org.swift.buildgraph.BasicTests</string>", "BNDL"} {
		if !strings.Contains(string(plist), want) {
			t.Errorf("Info.plist missing %q:\n%s", want, plist)
		}
	}

	again, _ := cmd.Bundle.InfoPlist()
	if string(again) != string(plist) {
		t.Error("Info.plist rendering must be deterministic")
	}
}
