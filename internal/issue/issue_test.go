// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

// identityRender replaces glamour so tests stay fast and deterministic.
func identityRender(t *testing.T) {
	t.Helper()
	old := render
	render = func(in string, _ string) (string, error) { return in, nil }
	t.Cleanup(func() { render = old })
}

func TestLookupKnownIds(t *testing.T) {
	for _, id := range Ids() {
		issue := Lookup(id)
		if issue == nil {
			t.Errorf("Lookup(%d) = nil", id)
			continue
		}
		if issue.Id() != id {
			t.Errorf("Lookup(%d).Id() = %d", id, issue.Id())
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("issue %d has an empty body", id)
		}
	}
}

func TestLookupUnknownId(t *testing.T) {
	if got := Lookup(Id(9999)); got != nil {
		t.Errorf("Lookup(9999) = %v, want nil", got)
	}
}

func TestIdsSorted(t *testing.T) {
	ids := Ids()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("Ids() not in ascending order: %v", ids)
		}
	}
}

func TestRenderIncludesLinks(t *testing.T) {
	identityRender(t)

	out, err := Lookup(ContainerRuntimeNotFoundId).Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "See also") {
		t.Errorf("Render() = %q, missing links section", out)
	}
	if !strings.Contains(out, "docs.docker.com") {
		t.Errorf("Render() = %q, missing external link", out)
	}
}

func TestRenderWithoutLinks(t *testing.T) {
	identityRender(t)

	out, err := Lookup(VCSMetadataNotFoundId).Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "See also") {
		t.Errorf("Render() = %q, has links section for linkless issue", out)
	}
}
