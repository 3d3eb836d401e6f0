// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	UnresolvedDependencyId
	DependencyCycleId
	ConfigLoadFailedId
	ExecutorNotFoundId
	ExecutorFailedId
	PermissionDeniedId
	UnknownActionId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue markdown with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No module manifest found!

buildgraph looks for a manifest in the project directory, in this order:
1. ` + "`buildgraph.cue`" + `
2. ` + "`buildgraph.toml`" + `
3. ` + "`buildgraph.hcl`" + `

## Things you can try:
- Point at an explicit manifest:
~~~
$ buildgraph --manifest path/to/buildgraph.cue
~~~

## Example manifest:
~~~cue
format: "1.0.0"
modules: [
  {name: "Basic"},
  {name: "Commands", dependencies: ["Basic"]},
  {name: "swift-build", dependencies: ["Basic", "Commands"]},
]
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse the module manifest!

The manifest contains syntax errors or values the schema rejects.

## Common issues:
- Missing ` + "`name`" + ` on a module entry
- Two modules declared with the same name
- A module name that is not usable as a file name (slashes, spaces)
- A ` + "`format`" + ` version this buildgraph release does not understand

## Things you can try:
- Check the field path in the error message above
- Run with ` + "`--verbose`" + ` to see the full error chain`,
	}

	unresolvedDependencyIssue = &Issue{
		id: UnresolvedDependencyId,
		mdMsg: `
# Unresolved module dependency!

A module lists a dependency that no other module in the manifest declares.
No build graph was written.

## Things you can try:
- Check the dependency name for typos (names are case-sensitive)
- Declare the missing module in the manifest
- If the dependency is a test module, pass ` + "`--build-tests`" + ``,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Modules depend on each other in a loop, so no build order exists.
No build graph was written.

## Things you can try:
- Follow the cycle printed above and remove one of its edges
- Move the shared code into a new module both sides can depend on`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Inspect the effective configuration:
~~~
$ buildgraph config show
~~~
- Check that ` + "`buildgraph.config.cue`" + ` contains valid CUE`,
	}

	executorNotFoundIssue = &Issue{
		id: ExecutorNotFoundId,
		mdMsg: `
# Build executor not found!

The incremental build executor is not on your PATH.

## Things you can try:
- Install a toolchain that ships ` + "`swift-build-tool`" + `
- Point buildgraph at it explicitly:
~~~
$ buildgraph --executor /path/to/swift-build-tool
~~~`,
	}

	executorFailedIssue = &Issue{
		id: ExecutorFailedId,
		mdMsg: `
# Build failed!

The build executor exited with a non-zero status. The compiler or linker
output above names the failing step.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to print every command line
- Start from a clean tree:
~~~
$ buildgraph clean && buildgraph all
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

buildgraph could not write into the build products directory.

## Things you can try:
- Check the permissions of the ` + "`--build-path`" + ` directory
- Choose a build path you own`,
	}

	unknownActionIssue = &Issue{
		id: UnknownActionId,
		mdMsg: `
# Unknown action!

Valid actions are ` + "`clean`, `all`, `test` and `install`" + `.`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():     manifestNotFoundIssue,
		manifestParseErrorIssue.Id():   manifestParseErrorIssue,
		unresolvedDependencyIssue.Id(): unresolvedDependencyIssue,
		dependencyCycleIssue.Id():      dependencyCycleIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		executorNotFoundIssue.Id():     executorNotFoundIssue,
		executorFailedIssue.Id():       executorFailedIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
		unknownActionIssue.Id():        unknownActionIssue,
	}
)

// Values returns every catalog entry sorted by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, v := range issues {
		values = append(values, v)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
