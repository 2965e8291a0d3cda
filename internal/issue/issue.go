// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	ContainerRuntimeNotFoundId Id = iota + 1
	VCSMetadataNotFoundId
	CoverageTraceNotFoundId
	FormatterImageBuildFailedId
)

// MarkdownMsg is markdown text that will be rendered for the terminal.
type MarkdownMsg string

// HttpLink is a URL pointing at further reading for an issue.
type HttpLink string

// Issue is a catalog entry: a longer guidance page for a recurring
// environment problem, rendered as markdown on demand.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	extLinks []HttpLink
}

// Id returns the catalog identifier of the issue.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown body of the issue.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// ExtLinks returns external links that might be useful for the user.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue body (plus any links) with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.extLinks {
			extraMd += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

// render is a seam for tests; glamour shells out to nothing but is slow to
// initialize, so tests replace it with an identity function.
var render = glamour.Render

var (
	containerRuntimeNotFoundIssue = &Issue{
		id: ContainerRuntimeNotFoundId,
		mdMsg: `
# No usable container runtime

Formatting normally runs inside a container so that every checkout uses the
exact same clang-format build. No working runtime was found, so the formatter
ran directly on this host instead. The results may differ from CI.

## Things you can try
- Install docker or podman and make sure it is on your PATH
- Check that the daemon is running:
~~~
$ docker images
~~~
- If the runtime needs root, rerun without the --noroot flag`,
		extLinks: []HttpLink{
			"https://docs.docker.com/engine/install/",
			"https://podman.io/docs/installation",
		},
	}

	vcsMetadataNotFoundIssue = &Issue{
		id: VCSMetadataNotFoundId,
		mdMsg: `
# No version control metadata

Neither a Mercurial (.hg) nor a Git (.git) directory was found at the
repository root, so there is no way to compute the set of changed files.
Nothing will be formatted.

## Things you can try
- Run the command from inside a checkout
- Pass the files to format explicitly:
~~~
$ nssdev clang-format lib/ssl/sslsock.c
~~~`,
	}

	coverageTraceNotFoundIssue = &Issue{
		id: CoverageTraceNotFoundId,
		mdMsg: `
# No coverage trace produced

The instrumented test run finished but left no ssl_gtest.*.sancov file in the
output directory. Symbolization cannot run without one.

## Things you can try
- Check the test run output for sanitizer startup errors
- Make sure the output directory is writable
- Rerun with --verbose to see the environment passed to the test harness`,
	}

	formatterImageBuildFailedIssue = &Issue{
		id: FormatterImageBuildFailedId,
		mdMsg: `
# Formatter image build failed

The container image for clang-format could not be rebuilt.

## Things you can try
- Check the Dockerfile under the formatter build directory
- Make sure base images can be pulled on this machine
- Remove the cached image and retry`,
	}

	catalog = map[Id]*Issue{
		ContainerRuntimeNotFoundId:  containerRuntimeNotFoundIssue,
		VCSMetadataNotFoundId:       vcsMetadataNotFoundIssue,
		CoverageTraceNotFoundId:     coverageTraceNotFoundIssue,
		FormatterImageBuildFailedId: formatterImageBuildFailedIssue,
	}
)

// Lookup returns the catalog entry for the given id, or nil if none exists.
func Lookup(id Id) *Issue {
	return catalog[id]
}

// Ids returns all registered catalog ids in ascending order.
func Ids() []Id {
	ids := maps.Keys(catalog)
	slices.Sort(ids)
	return ids
}
