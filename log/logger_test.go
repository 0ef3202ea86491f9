package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   Debug,
		"INFO":    Info,
		"":        Info,
		"warning": Warn,
		"error":   Error,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", input, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestLogger_LevelFilterAndNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter("feedtree", Warn, &buf, false)

	l.Info("dropped %d", 1)
	l.Named("mapping").Warn("kept %s", "line")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("Info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN  feedtree.mapping: kept line") {
		t.Errorf("Expected named warn line, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("Writer loggers must not colour, got %q", out)
	}
}

func TestLogger_SetLevelSharedByChildren(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriter("feedtree", Error, &buf, false)
	child := root.Named("provider").Named("videos")

	child.Info("before")
	root.SetLevel(Debug)
	child.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("Info line should be filtered before SetLevel, got %q", out)
	}
	if !strings.Contains(out, "feedtree.provider.videos: after") {
		t.Errorf("Child should follow the root level, got %q", out)
	}
	if child.Level() != Debug || child.Component() != "feedtree.provider.videos" {
		t.Errorf("Unexpected child %q at %v", child.Component(), child.Level())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter("feedtree", Debug, &buf, true)

	l.Named("feed").Error("fetch %s", "failed")

	var e entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("invalid json line %q: %v", buf.String(), err)
	}
	if e.Level != "ERROR" || e.Component != "feedtree.feed" || e.Message != "fetch failed" {
		t.Errorf("Unexpected entry: %+v", e)
	}
	if _, err := time.Parse(timeFormat, e.Time); err != nil {
		t.Errorf("Unexpected time %q: %v", e.Time, err)
	}
}

func TestLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedtree.log")
	l := New("feedtree", Options{
		Level:      Info,
		File:       path,
		NoTerminal: true,
		Rotation:   Rotation{MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1},
	})

	l.Named("mapping").Info("written")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	l.Info("dropped")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, "INFO  feedtree.mapping: written") {
		t.Errorf("Expected plain line in file, got %q", out)
	}
	if strings.Contains(out, "dropped") || strings.Contains(out, "\033[") {
		t.Errorf("Unexpected file content %q", out)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing %s", "here")

	var nilLogger *Logger
	nilLogger.Warn("nil loggers are silent")
	nilLogger.SetLevel(Debug)
	if nilLogger.Enabled(Fatal) {
		t.Error("nil logger should never be enabled")
	}
	if nilLogger.Named("x") != nil {
		t.Error("Named on nil logger should return nil")
	}
}
