package field

import (
	"testing"

	"github.com/mwantia/feedtree/data"
)

func sampleEntry() *data.RemoteEntry {
	return &data.RemoteEntry{
		Token:       "http://gdata.youtube.com/feeds/api/videos/abc123",
		Title:       "Launch day",
		URL:         "http://www.youtube.com/v/abc123?f=videos",
		MimeType:    "application/x-shockwave-flash",
		Width:       "640",
		Height:      "390",
		Keywords:    "launch, rocket",
		Description: "We launched.",
		VideoID:     "abc123",
	}
}

func TestProject_KnownFields(t *testing.T) {
	entry := sampleEntry()

	cases := map[string]string{
		URL:         entry.URL,
		ID:          "abc123",
		Width:       "640",
		Height:      "390",
		Title:       "Launch day",
		Keywords:    "launch, rocket",
		Description: "We launched.",
		Extension:   "flv",
		MimeType:    "application/x-shockwave-flash",
		Size:        "",
		Format:      "",
		Dimensions:  "",
	}
	for name, want := range cases {
		if got := Project(name, entry); got != want {
			t.Errorf("Project(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestProject_Total(t *testing.T) {
	entry := sampleEntry()

	for _, name := range []string{"Bogus", "", "url", "MIME TYPE", "__Created"} {
		if got := Project(name, entry); got != "" {
			t.Errorf("Project(%q) = %q, want empty", name, got)
		}
	}

	for _, name := range Names() {
		if name == Extension {
			continue
		}
		if got := Project(name, nil); got != "" {
			t.Errorf("Project(%q, nil) = %q, want empty", name, got)
		}
	}
}

func TestProject_ExtensionIsConstant(t *testing.T) {
	for _, entry := range []*data.RemoteEntry{nil, {}, sampleEntry(), {MimeType: "video/mp4"}} {
		if got := Project(Extension, entry); got != "flv" {
			t.Errorf("Project(Extension) = %q, want flv", got)
		}
	}
}

func TestNames_AllProjected(t *testing.T) {
	if len(Names()) != len(projections) {
		t.Fatalf("Names lists %d fields, projections has %d", len(Names()), len(projections))
	}
	for _, name := range Names() {
		if _, ok := projections[name]; !ok {
			t.Errorf("Field %q has no projection", name)
		}
	}
}
