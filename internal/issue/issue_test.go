// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func allIds() []Id {
	return []Id{
		DockerNotAvailableId,
		DockerTooOldId,
		MissingTokenId,
		ContainerFailedId,
		ConfigLoadFailedId,
		LogFileNotWritableId,
		InvalidImageId,
		ImagePullFailedId,
	}
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds() {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if DockerNotAvailableId != 1 {
		t.Errorf("DockerNotAvailableId = %d, want 1", DockerNotAvailableId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		contains string
	}{
		{DockerNotAvailableId, "Docker is not available"},
		{DockerTooOldId, "20.10.0"},
		{MissingTokenId, "DT1_TOKEN"},
		{ContainerFailedId, "non-zero return code"},
		{ConfigLoadFailedId, "config path"},
		{ConfigLoadFailedId, "missing or unreadable"},
		{LogFileNotWritableId, "log_dir"},
		{InvalidImageId, "AIDO_REGISTRY"},
		{ImagePullFailedId, "--no-pull"},
	}

	for _, tt := range tests {
		issue := Get(tt.id)
		if issue == nil {
			t.Errorf("Get(%d) returned nil", tt.id)
			continue
		}
		if issue.Id() != tt.id {
			t.Errorf("Get(%d).Id() = %d", tt.id, issue.Id())
		}
		if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
			t.Errorf("Get(%d) message should contain %q", tt.id, tt.contains)
		}
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(9999) should return nil")
	}
}

func TestValues(t *testing.T) {
	values := Values()
	if len(values) != len(allIds()) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(allIds()))
	}
	for i, issue := range values {
		if issue.Id() != allIds()[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), allIds()[i])
		}
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	issue := Get(DockerNotAvailableId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("expected external links")
	}

	original := links[0]
	links[0] = "modified"
	if issue.ExtLinks()[0] != original {
		t.Error("ExtLinks() should return a clone")
	}

	docs := Get(MissingTokenId).DocLinks()
	docs[0] = "modified"
	if Get(MissingTokenId).DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	var gotStyle string
	render = func(in string, stylePath string) (string, error) {
		gotStyle = stylePath
		return in, nil
	}

	rendered, err := Get(DockerNotAvailableId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if gotStyle != "auto" {
		t.Errorf("empty style should default to auto, got %q", gotStyle)
	}
	if !strings.Contains(rendered, "## See also") || !strings.Contains(rendered, "docs.docker.com") {
		t.Errorf("Render() should list links, got:\n%s", rendered)
	}

	rendered, err = Get(ContainerFailedId).Render("dark")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if gotStyle != "dark" {
		t.Errorf("style = %q, want dark", gotStyle)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("issue without links should not have a See also section")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping glamour rendering in short mode")
	}

	for _, issue := range Values() {
		out, err := issue.Render("dark")
		if err != nil {
			t.Errorf("issue %d failed to render: %v", issue.Id(), err)
		}
		if strings.TrimSpace(out) == "" {
			t.Errorf("issue %d rendered empty output", issue.Id())
		}
	}
}
