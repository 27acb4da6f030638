package kokuin

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kokuin/kokuin/logging"
)

func testLogger() *logging.Logger {
	return logging.Nop()
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 13, 7, 9, 0, time.UTC)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestNew(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kokuin.yml":     "name: mypkg\nversion: 1.0.0\nroot: ./src\n",
		"src/mypkg/a.go": "package mypkg\n",
		"bad.yml":        "name: 123bad\nroot: ./src\n",
	})

	tests := []struct {
		name      string
		config    Config
		expectErr string
	}{
		{
			name:   "valid manifest",
			config: Config{Manifest: filepath.Join(dir, "kokuin.yml")},
		},
		{
			name:      "missing manifest",
			config:    Config{Manifest: filepath.Join(dir, "nope.yml")},
			expectErr: "no such file",
		},
		{
			name:      "invalid manifest",
			config:    Config{Manifest: filepath.Join(dir, "bad.yml")},
			expectErr: "invalid manifest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			k, err := New(tt.config, &buf, testLogger())
			if tt.expectErr != "" {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.expectErr) {
					t.Errorf("Expected error to contain %q, got %q", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if k.manifest.Name != "mypkg" {
				t.Errorf("Expected manifest name mypkg, got %s", k.manifest.Name)
			}
		})
	}
}

func TestNewSourceOverrideClearsInlineVersion(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kokuin.yml":     "name: mypkg\nversion: 1.0.0\nroot: ./src\n",
		"src/mypkg/a.go": "package mypkg\n",
		"VERSION":        "2.3.4\n",
	})

	var buf bytes.Buffer
	c := Config{
		Manifest: filepath.Join(dir, "kokuin.yml"),
		Source:   "file://" + filepath.Join(dir, "VERSION"),
	}
	k, err := New(c, &buf, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if k.manifest.Version != "" {
		t.Errorf("Expected inline version to be cleared, got %q", k.manifest.Version)
	}
	if k.manifest.Source != c.Source {
		t.Errorf("Expected source %q, got %q", c.Source, k.manifest.Source)
	}
}

func TestRunStamp(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kokuin.yml": `name: mypkg
version: 1.0.0
author: Alice
description: A test package.
root: ./src
requires:
  - requests>=2.0
`,
		"src/mypkg/a.go":     "package mypkg\n",
		"src/mypkg/sub/b.go": "package sub\n",
	})

	var buf bytes.Buffer
	c := DefaultConfig()
	c.Manifest = filepath.Join(dir, "kokuin.yml")
	k, err := New(c, &buf, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	k.clock = fixedClock

	if err := k.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	var d Descriptor
	if err := json.Unmarshal(buf.Bytes(), &d); err != nil {
		t.Fatalf("Descriptor output is not valid JSON: %s", err)
	}

	expected := Descriptor{
		Name:        "mypkg",
		Version:     "1.0.0+20240305.130709",
		BaseVersion: "1.0.0",
		Author:      "Alice",
		Description: "A test package.",
		Packages:    []string{"mypkg", "mypkg/sub"},
		Files:       2,
		Bytes:       d.Bytes,
		Requires:    []string{"requests>=2.0"},
		Artifact:    "mypkg_1.0.0+20240305.130709.tar.gz",
	}
	if diff := cmp.Diff(expected, d); diff != "" {
		t.Errorf("Descriptor mismatch (-want +got):\n%s", diff)
	}
	if d.Bytes == 0 {
		t.Error("Expected non-zero bytes")
	}
}

func TestRunStampToFile(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kokuin.yml":     "name: mypkg\nversion: 1.0.0\nroot: ./src\n",
		"src/mypkg/a.go": "package mypkg\n",
	})

	out := filepath.Join(dir, "descriptor.json")
	var buf bytes.Buffer
	c := DefaultConfig()
	c.Manifest = filepath.Join(dir, "kokuin.yml")
	c.Output = out
	k, err := New(c, &buf, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	k.clock = fixedClock

	if err := k.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if buf.Len() != 0 {
		t.Errorf("Expected no stdout output when writing to a file, got %q", buf.String())
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"version": "1.0.0+20240305.130709"`) {
		t.Errorf("Expected stamped version in file, got %s", b)
	}
}

func TestRunPack(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kokuin.yml": `name: mypkg
version: 1.0.0
root: ./src
hooks:
  before:
    - echo before > hook-ran.txt
  after:
    - echo after >> hook-ran.txt
`,
		"src/mypkg/a.go": "package mypkg\n",
	})

	var buf bytes.Buffer
	c := DefaultConfig()
	c.Manifest = filepath.Join(dir, "kokuin.yml")
	c.Command = PACK
	k, err := New(c, &buf, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	k.clock = fixedClock

	if err := k.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	archive := filepath.Join(dir, "dist", "mypkg_1.0.0+20240305.130709.tar.gz")
	info, err := os.Stat(archive)
	if err != nil {
		t.Fatalf("Expected archive at %s: %s", archive, err)
	}
	if info.Size() == 0 {
		t.Error("Expected non-empty archive")
	}

	hook, err := os.ReadFile(filepath.Join(dir, "hook-ran.txt"))
	if err != nil {
		t.Fatalf("Expected hook output file: %s", err)
	}
	if got := string(hook); got != "before\nafter\n" {
		t.Errorf("Expected both hooks to run, got %q", got)
	}
}

func TestRunInvalidResolvedBase(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kokuin.yml":     "name: mypkg\nroot: ./src\n",
		"src/mypkg/a.go": "package mypkg\n",
		"VERSION":        "not-a-version\n",
	})

	var buf bytes.Buffer
	c := DefaultConfig()
	c.Manifest = filepath.Join(dir, "kokuin.yml")
	c.Source = "file://" + filepath.Join(dir, "VERSION")
	k, err := New(c, &buf, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	k.clock = fixedClock

	err = k.Run(context.Background())
	if err == nil {
		t.Fatal("Expected error for unparsable base version")
	}
	if !strings.Contains(err.Error(), "resolved base version is invalid") {
		t.Errorf("Unexpected error: %s", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output before validation failure, got %q", buf.String())
	}
}

func TestRunStampCustomMarker(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kokuin.yml": `name: mypkg
version: 1.0.0
root: ./src
marker: "__init__.py"
`,
		"src/mypkg/__init__.py":     "__version__ = '1.0.0'\n",
		"src/mypkg/sub/__init__.py": "",
		"src/mypkg/notes.txt":       "ignored\n",
	})

	var buf bytes.Buffer
	c := DefaultConfig()
	c.Manifest = filepath.Join(dir, "kokuin.yml")
	k, err := New(c, &buf, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	k.clock = fixedClock

	if err := k.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	var d Descriptor
	if err := json.Unmarshal(buf.Bytes(), &d); err != nil {
		t.Fatalf("Descriptor output is not valid JSON: %s", err)
	}
	want := []string{"mypkg", "mypkg/sub"}
	if diff := cmp.Diff(want, d.Packages); diff != "" {
		t.Errorf("Packages mismatch (-want +got):\n%s", diff)
	}
	if d.Files != 2 {
		t.Errorf("Expected only marker matches to be counted, got %d files", d.Files)
	}
}

func TestRecordStamped(t *testing.T) {
	k := &Kokuin{}

	if got := k.lastStamped(); got != "" {
		t.Errorf("Expected no recorded base initially, got %q", got)
	}
	k.recordStamped("1.0.0")
	if got := k.lastStamped(); got != "1.0.0" {
		t.Errorf("Expected recorded base 1.0.0, got %q", got)
	}
	k.recordStamped("1.0.1")
	if got := k.lastStamped(); got != "1.0.1" {
		t.Errorf("Expected recorded base 1.0.1, got %q", got)
	}
}

func TestRunWatchRetriesAfterFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hooks require sh")
	}

	// The before hook fails on the first tick and passes afterwards.
	dir := writeTree(t, map[string]string{
		"kokuin.yml": `name: mypkg
version: 1.0.0
root: ./src
hooks:
  before:
    - "[ -f unlock ] || { touch unlock; exit 1; }"
`,
		"src/mypkg/a.go": "package mypkg\n",
	})

	var buf bytes.Buffer
	c := DefaultConfig()
	c.Manifest = filepath.Join(dir, "kokuin.yml")
	c.Command = PACK
	c.Interval = 10
	k, err := New(c, &buf, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	k.clock = fixedClock

	if err := k.Run(context.Background()); err == nil {
		t.Fatal("Expected first run to fail on the before hook")
	}

	archive := filepath.Join(dir, "dist", "mypkg_1.0.0+20240305.130709.tar.gz")
	if _, err := os.Stat(archive); !os.IsNotExist(err) {
		t.Fatal("Expected no archive after the failed run")
	}

	// Same base, but the failed tick must not have been recorded.
	if err := k.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("Expected archive after the retried run: %s", err)
	}

	// A further tick with the unchanged base is skipped.
	buf.Reset()
	if err := k.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected third run with unchanged base to emit nothing, got %q", buf.String())
	}
}

func TestRunWatchSkipsUnchangedBase(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"kokuin.yml":     "name: mypkg\nversion: 1.0.0\nroot: ./src\n",
		"src/mypkg/a.go": "package mypkg\n",
	})

	var buf bytes.Buffer
	c := DefaultConfig()
	c.Manifest = filepath.Join(dir, "kokuin.yml")
	c.Interval = 10
	k, err := New(c, &buf, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	k.clock = fixedClock

	if err := k.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := buf.Len()
	if first == 0 {
		t.Fatal("Expected output on first run")
	}

	if err := k.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != first {
		t.Error("Expected second run with unchanged base to emit nothing")
	}
}
