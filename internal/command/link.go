// SPDX-License-Identifier: MPL-2.0

package command

import "path/filepath"

type (
	// LinkCommand produces a module's artifact. Steps run in order and stop
	// at the first failure; each step is one argument vector.
	LinkCommand struct {
		Mode        LinkMode
		Output      string
		Description string
		Steps       [][]string

		// Bundle is set for test bundles only.
		Bundle *Bundle
	}

	// Bundle describes the directory structure a test bundle link needs.
	Bundle struct {
		Name       string
		Identifier string

		// ExecutableDir must exist before the link runs.
		ExecutableDir string
		// InfoPlistPath is where the rendered metadata descriptor is written.
		InfoPlistPath string
	}
)

// Link assembles the link command of m. objects are the compile outputs to
// link (empty for a module without sources), archives the static libraries
// of m's transitive library dependencies in dependency-first order, and
// libs the extra linker arguments of m and its dependencies.
func Link(env Environment, l Layout, m Module, objects, archives, libs []string) LinkCommand {
	mode := m.Mode(env)
	out := m.Artifact(env, l)

	if mode == LinkLibrary {
		ar := append([]string{"ar", "cr", out}, objects...)
		return LinkCommand{
			Mode:        mode,
			Output:      out,
			Description: "Archiving " + filepath.Base(out),
			Steps:       [][]string{{"rm", "-f", out}, ar},
		}
	}

	caps := env.caps()
	args := []string{env.Compiler, "-o", out}
	args = append(args, objects...)
	if len(archives) > 0 {
		if caps.wholeArchive {
			args = append(args, "-Xlinker", "--whole-archive")
		}
		args = append(args, archives...)
		if caps.wholeArchive {
			args = append(args, "-Xlinker", "--no-whole-archive")
		}
	}
	args = append(args, libs...)
	if env.Sysroot != "" {
		args = append(args, "-sdk", env.Sysroot)
	}
	if caps.targetTriple != "" {
		args = append(args, "-target", caps.targetTriple)
	}
	if m.Test && env.FrameworkPath != "" {
		args = append(args, caps.testLinkSearchFlag, env.FrameworkPath,
			"-Xlinker", "-rpath", "-Xlinker", env.FrameworkPath)
	}

	cmd := LinkCommand{
		Mode:        mode,
		Output:      out,
		Description: "Linking " + m.Name,
	}
	if mode == LinkTestBundle {
		args = append(args, caps.bundleLinkFlags...)
		cmd.Description = "Linking test bundle " + m.Name + ".xctest"
		cmd.Bundle = &Bundle{
			Name:          m.Name,
			Identifier:    env.BundleIDPrefix + "." + m.Name,
			ExecutableDir: filepath.Dir(out),
			InfoPlistPath: l.BundleInfoPlist(m.Name),
		}
	}
	cmd.Steps = [][]string{args}
	return cmd
}
