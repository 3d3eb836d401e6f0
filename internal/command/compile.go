// SPDX-License-Identifier: MPL-2.0

package command

import "strconv"

// CompileCommand is a single compiler invocation over all of a module's
// sources. The fields mirror what the executor's compiler tool expects;
// OtherArgs carries everything the tool does not model itself.
type CompileCommand struct {
	Executable       string
	ModuleName       string
	ModuleOutputPath string
	ImportPaths      []string
	TempsPath        string
	Sources          []string
	Objects          []string
	IsLibrary        bool
	NumThreads       int
	OtherArgs        []string
}

// Compile assembles the compile command of m. It never fails; m must have
// at least one source for the command to be meaningful.
func Compile(env Environment, l Layout, m Module) CompileCommand {
	caps := env.caps()

	other := []string{"-Onone", "-g", "-j" + strconv.Itoa(env.NumCPU)}
	other = append(other, m.Flags...)
	if m.Test && env.FrameworkPath != "" {
		other = append(other, caps.testSearchFlag, env.FrameworkPath)
	}
	if env.Sysroot != "" {
		other = append(other, "-sdk", env.Sysroot)
	}
	if caps.targetTriple != "" {
		other = append(other, "-target", caps.targetTriple)
	}

	objects := make([]string, 0, len(m.Sources))
	for _, src := range m.Sources {
		objects = append(objects, l.Object(m.Name, m.SourceDir, src))
	}

	return CompileCommand{
		Executable:       env.Compiler,
		ModuleName:       m.Name,
		ModuleOutputPath: l.Interface(m.Name),
		ImportPaths:      []string{l.ModulesDir()},
		TempsPath:        l.BuildDir(m.Name),
		Sources:          append([]string(nil), m.Sources...),
		Objects:          objects,
		IsLibrary:        m.IsLibrary(),
		NumThreads:       env.NumCPU,
		OtherArgs:        other,
	}
}

// Outputs are the files the compile produces: the module interface followed
// by one object per source.
func (c CompileCommand) Outputs() []string {
	out := make([]string, 0, len(c.Objects)+1)
	out = append(out, c.ModuleOutputPath)
	return append(out, c.Objects...)
}

// Args is the equivalent standalone compiler command line, for diagnostics.
func (c CompileCommand) Args() []string {
	args := []string{c.Executable, "-module-name", c.ModuleName, "-emit-module-path", c.ModuleOutputPath}
	for _, p := range c.ImportPaths {
		args = append(args, "-I", p)
	}
	if c.IsLibrary {
		args = append(args, "-parse-as-library")
	}
	args = append(args, "-c")
	args = append(args, c.Sources...)
	return append(args, c.OtherArgs...)
}
