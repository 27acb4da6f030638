package kokuin

import (
	"encoding/json"
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Descriptor is the evaluated form of a manifest: the metadata a packaging
// tool consumes. It is rendered to stdout or a file by stamp, and embedded
// into the archive by pack.
type Descriptor struct {
	Name        string   `json:"name" yaml:"name"`
	Version     string   `json:"version" yaml:"version"`
	BaseVersion string   `json:"base_version" yaml:"base_version"`
	Author      string   `json:"author,omitempty" yaml:"author,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Packages    []string `json:"packages" yaml:"packages"`
	Files       int      `json:"files" yaml:"files"`
	Bytes       int64    `json:"bytes" yaml:"bytes"`
	Requires    []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Artifact    string   `json:"artifact" yaml:"artifact"`
}

// Render formats the descriptor as json, yaml or text.
func (d *Descriptor) Render(format string) ([]byte, error) {
	switch format {
	case "", "json":
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil

	case "yaml", "yml":
		return yaml.Marshal(d)

	case "text":
		var b strings.Builder
		fmt.Fprintf(&b, "name:        %s\n", d.Name)
		fmt.Fprintf(&b, "version:     %s\n", d.Version)
		fmt.Fprintf(&b, "base:        %s\n", d.BaseVersion)
		if d.Author != "" {
			fmt.Fprintf(&b, "author:      %s\n", d.Author)
		}
		if d.Description != "" {
			fmt.Fprintf(&b, "description: %s\n", d.Description)
		}
		fmt.Fprintf(&b, "packages:    %s\n", strings.Join(d.Packages, ", "))
		fmt.Fprintf(&b, "files:       %d (%d bytes)\n", d.Files, d.Bytes)
		if len(d.Requires) > 0 {
			fmt.Fprintf(&b, "requires:    %s\n", strings.Join(d.Requires, ", "))
		}
		fmt.Fprintf(&b, "artifact:    %s\n", d.Artifact)
		return []byte(b.String()), nil
	}

	return nil, fmt.Errorf("unsupported output format: %s", format)
}
