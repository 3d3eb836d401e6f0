// SPDX-License-Identifier: MPL-2.0

package command

import "github.com/buildgraph/buildgraph/pkg/platform"

// capabilities captures everything command assembly does differently per
// platform family.
type capabilities struct {
	// targetTriple is passed with -target to every compile and link.
	targetTriple string
	// testSearchFlag adds FrameworkPath when compiling a test module.
	testSearchFlag string
	// testLinkSearchFlag adds FrameworkPath when linking a test module.
	testLinkSearchFlag string
	// testBundles links test modules as loadable bundles instead of executables.
	testBundles bool
	// bundleLinkFlags are appended when linking a test bundle.
	bundleLinkFlags []string
	// wholeArchive wraps static archives so unreferenced symbols survive.
	wholeArchive bool
}

var capabilityTable = map[platform.Family]capabilities{
	platform.FamilyDarwin: {
		targetTriple:       "x86_64-apple-macosx10.10",
		testSearchFlag:     "-F",
		testLinkSearchFlag: "-F",
		testBundles:        true,
		bundleLinkFlags: []string{
			"-Xlinker", "-bundle",
			"-Xlinker", "-rpath", "-Xlinker", "@loader_path/../../..",
		},
	},
	platform.FamilyLinux: {
		testSearchFlag:     "-I",
		testLinkSearchFlag: "-L",
		wholeArchive:       true,
	},
}
