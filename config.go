package kokuin

import (
	"os"
	"strconv"
)

// Command is the operation a run performs.
type Command int

const (
	// STAMP evaluates the descriptor and emits the stamped metadata.
	STAMP Command = iota
	// PACK stamps and hands the package tree off to the archiver.
	PACK
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case STAMP:
		return "stamp"
	case PACK:
		return "pack"
	default:
		return "unknown"
	}
}

// Config struct.
type Config struct {
	Command  Command
	Manifest string
	// Source overrides the manifest's source URL when set.
	Source string
	// Notify overrides the manifest's notify URL when set.
	Notify string
	// Interval enables watch mode when positive (seconds).
	Interval int
	// Output writes the evaluated descriptor to a file instead of stdout.
	Output string
	// Format is the descriptor rendering: json, yaml or text.
	Format string
}

// DefaultConfig returns default Config.
func DefaultConfig() Config {
	return Config{
		Command:  STAMP,
		Manifest: "",
		Interval: -1,
		Format:   "json",
	}
}

// OverrideWithEnv overrides by environments.
func (c *Config) OverrideWithEnv() {
	if v := os.Getenv("KOKUIN_MANIFEST"); v != "" {
		c.Manifest = v
	}
	if v := os.Getenv("KOKUIN_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("KOKUIN_NOTIFY"); v != "" {
		c.Notify = v
	}
	if v := os.Getenv("KOKUIN_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			c.Interval = i
		}
	}
}
