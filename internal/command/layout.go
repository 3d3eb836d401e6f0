// SPDX-License-Identifier: MPL-2.0

package command

import (
	"path/filepath"
	"strings"
)

const (
	// GraphFileName is the name of the serialized build graph.
	GraphFileName = "build.yaml"

	libDir     = "lib"
	binDir     = "bin"
	modulesDir = "modules"
)

// Layout derives every output path from the build root and a module name.
// No path depends on the order in which modules are visited.
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// GraphFile is the path of the serialized build graph.
func (l Layout) GraphFile() string { return filepath.Join(l.Root, GraphFileName) }

// LibDir holds static archives.
func (l Layout) LibDir() string { return filepath.Join(l.Root, libDir) }

// BinDir holds executables and test bundles.
func (l Layout) BinDir() string { return filepath.Join(l.Root, binDir) }

// ModulesDir holds compiled module interfaces and is the import search path.
func (l Layout) ModulesDir() string { return filepath.Join(l.Root, modulesDir) }

// SharedDirs are the directories every graph needs before any node runs.
func (l Layout) SharedDirs() []string {
	return []string{l.LibDir(), l.BinDir(), l.ModulesDir()}
}

// BuildDir is the per-module directory for objects and compiler temporaries.
func (l Layout) BuildDir(name string) string {
	return filepath.Join(l.Root, name+".build")
}

// Archive is the static library produced for a library module.
func (l Layout) Archive(name string) string {
	return filepath.Join(l.LibDir(), "lib"+name+".a")
}

// Executable is the program produced for an executable module.
func (l Layout) Executable(name string) string {
	return filepath.Join(l.BinDir(), name)
}

// Interface is the compiled module interface.
func (l Layout) Interface(name string) string {
	return filepath.Join(l.ModulesDir(), name+".swiftmodule")
}

// Bundle is the root directory of a test bundle.
func (l Layout) Bundle(name string) string {
	return filepath.Join(l.BinDir(), name+".xctest")
}

// BundleExecutable is the loadable binary inside a test bundle.
func (l Layout) BundleExecutable(name string) string {
	return filepath.Join(l.Bundle(name), "Contents", "MacOS", name)
}

// BundleInfoPlist is the metadata descriptor of a test bundle.
func (l Layout) BundleInfoPlist(name string) string {
	return filepath.Join(l.Bundle(name), "Contents", "Info.plist")
}

// Object maps a source file to its object file inside the module's build
// directory, mirroring the source's position below sourceRoot.
func (l Layout) Object(name, sourceRoot, source string) string {
	rel, err := filepath.Rel(sourceRoot, source)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(source)
	}
	return filepath.Join(l.BuildDir(name), strings.TrimSuffix(rel, filepath.Ext(rel))+".o")
}
