package kokuin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	expected := Config{
		Command:  STAMP,
		Manifest: "",
		Interval: -1,
		Format:   "json",
	}
	if diff := cmp.Diff(expected, DefaultConfig()); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		command Command
		want    string
	}{
		{STAMP, "stamp"},
		{PACK, "pack"},
		{Command(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.command.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestOverrideWithEnv(t *testing.T) {
	t.Setenv("KOKUIN_MANIFEST", "custom.yml")
	t.Setenv("KOKUIN_SOURCE", "ghr://owner/repo")
	t.Setenv("KOKUIN_NOTIFY", "slack://ops")
	t.Setenv("KOKUIN_INTERVAL", "30")

	c := DefaultConfig()
	c.Manifest = "flag.yml"
	c.OverrideWithEnv()

	expected := Config{
		Command:  STAMP,
		Manifest: "custom.yml",
		Source:   "ghr://owner/repo",
		Notify:   "slack://ops",
		Interval: 30,
		Format:   "json",
	}
	if diff := cmp.Diff(expected, c); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestOverrideWithEnvIgnoresBadInterval(t *testing.T) {
	t.Setenv("KOKUIN_INTERVAL", "soon")

	c := DefaultConfig()
	c.OverrideWithEnv()

	if c.Interval != -1 {
		t.Errorf("Expected interval to stay -1, got %d", c.Interval)
	}
}
