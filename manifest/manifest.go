// Package manifest loads and validates the kokuin package descriptor.
//
// The descriptor declares the metadata of a distributable package: its name,
// base version (inline or resolved from a metadata source), author,
// description, the directory wired into package discovery, dependency
// declarations, and the archive hand-off options. It never resolves
// dependencies and never builds anything.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kokuin/kokuin/version"
	yaml "gopkg.in/yaml.v3"
)

// DefaultFile is the descriptor file looked up when none is given.
const DefaultFile = "kokuin.yml"

// nameRegex validates the package name: starts with a letter, alphanumerics
// and underscores, with optional dot-separated segments. Compatible with RDNS
// naming (e.g. "com.example.mypkg").
var nameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)*$`)

// Archive holds the archive hand-off options.
type Archive struct {
	// Format is the archive format, tar.gz or zip.
	Format string `yaml:"format" json:"format"`
	// Dist is the output directory for archives.
	Dist string `yaml:"dist" json:"dist"`
	// Platform appends _<os>_<arch> to artifact names when true.
	Platform bool `yaml:"platform" json:"platform"`
}

// Hooks holds commands run around the pack operation.
type Hooks struct {
	Before []string `yaml:"before" json:"before"`
	After  []string `yaml:"after" json:"after"`
}

// Manifest represents the package descriptor schema.
type Manifest struct {
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version" json:"version"`
	Source      string   `yaml:"source" json:"source"`
	Author      string   `yaml:"author" json:"author"`
	Description string   `yaml:"description" json:"description"`
	Scheme      string   `yaml:"scheme" json:"scheme"`
	CalVer      string   `yaml:"calver" json:"calver"`
	Root        string   `yaml:"root" json:"root"`
	Marker      string   `yaml:"marker" json:"marker"`
	Exclude     []string `yaml:"exclude" json:"exclude"`
	Requires    []string `yaml:"requires" json:"requires"`
	Archive     Archive  `yaml:"archive" json:"archive"`
	Hooks       Hooks    `yaml:"hooks" json:"hooks"`
	Notify      string   `yaml:"notify" json:"notify"`

	// path is where the manifest was loaded from; relative roots resolve
	// against its directory.
	path string
}

// ValidationIssue represents a single validation problem in a manifest.
type ValidationIssue struct {
	// Type categorizes the issue (e.g., "naming", "version", "structure")
	Type string
	// Message describes the specific problem
	Message string
	// Field is the manifest field where the issue was found (optional)
	Field string
}

// Error implements the error interface for ValidationIssue
func (v ValidationIssue) Error() string {
	if v.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", v.Type, v.Field, v.Message)
	}
	return fmt.Sprintf("[%s] %s", v.Type, v.Message)
}

// ValidationResult contains the result of manifest validation
type ValidationResult struct {
	// Valid is true if the manifest passed all validation checks
	Valid bool
	// Issues contains all validation problems found
	Issues []ValidationIssue
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issueType, message, field string) {
	r.Issues = append(r.Issues, ValidationIssue{
		Type:    issueType,
		Message: message,
		Field:   field,
	})
	r.Valid = false
}

// Err collapses the result into a single error, nil when valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	var msgs []string
	for _, issue := range r.Issues {
		msgs = append(msgs, issue.Error())
	}
	return fmt.Errorf("invalid manifest: %s", strings.Join(msgs, "; "))
}

// Load reads YAML or JSON into Manifest. An empty path loads DefaultFile.
func Load(path string) (*Manifest, error) {
	if path == "" {
		path = DefaultFile
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m := &Manifest{path: path}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, m); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, m); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if yerr := yaml.Unmarshal(b, m); yerr != nil {
			if jerr := json.Unmarshal(b, m); jerr != nil {
				return nil, fmt.Errorf("parse manifest: %v (yaml) / %v (json)", yerr, jerr)
			}
		}
	}

	return m, nil
}

// Path returns where the manifest was loaded from.
func (m *Manifest) Path() string {
	return m.path
}

// RootDir returns the discovery root resolved against the manifest location.
func (m *Manifest) RootDir() string {
	root := m.Root
	if root == "" {
		root = "."
	}
	if filepath.IsAbs(root) || m.path == "" {
		return filepath.Clean(root)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(m.path), root))
}

// ArchiveFormat returns the configured archive format, defaulting to tar.gz.
func (m *Manifest) ArchiveFormat() string {
	if m.Archive.Format == "" {
		return "tar.gz"
	}
	return m.Archive.Format
}

// DistDir returns the archive output directory resolved against the manifest
// location, defaulting to ./dist.
func (m *Manifest) DistDir() string {
	dist := m.Archive.Dist
	if dist == "" {
		dist = "dist"
	}
	if filepath.IsAbs(dist) || m.path == "" {
		return filepath.Clean(dist)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(m.path), dist))
}

// Validate checks the manifest and collects all problems found.
func (m *Manifest) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if m.Name == "" {
		result.AddIssue("naming", "name is required", "name")
	} else if !nameRegex.MatchString(m.Name) {
		result.AddIssue("naming", fmt.Sprintf(
			"name '%s' is invalid: must start with a letter, contain only alphanumeric characters and underscores, with optional dot-separated segments (e.g., 'mypkg', 'com.example.utils')",
			m.Name), "name")
	}

	switch {
	case m.Version == "" && m.Source == "":
		result.AddIssue("version", "one of version or source is required", "version")
	case m.Version != "" && m.Source != "":
		result.AddIssue("version", "version and source are mutually exclusive", "version")
	}

	scheme := version.Scheme(m.Scheme)
	schemeOK := true
	switch scheme {
	case "", version.SchemeSemVer, version.SchemeCalVer:
	default:
		result.AddIssue("version", fmt.Sprintf("unknown scheme '%s': must be semver or calver", m.Scheme), "scheme")
		schemeOK = false
	}
	if scheme == version.SchemeCalVer && m.CalVer == "" {
		result.AddIssue("version", "calver format is required when scheme is calver", "calver")
		schemeOK = false
	}

	if m.Version != "" && schemeOK {
		if _, err := scheme.Parse(m.Version, m.CalVer); err != nil {
			result.AddIssue("version", fmt.Sprintf("version '%s' does not parse under scheme %s", m.Version, schemeName(scheme)), "version")
		}
	}

	switch m.ArchiveFormat() {
	case "tar.gz", "zip":
	default:
		result.AddIssue("archive", fmt.Sprintf("unknown format '%s': must be tar.gz or zip", m.Archive.Format), "archive.format")
	}

	if m.Marker != "" {
		if _, err := filepath.Match(m.Marker, ""); err != nil {
			result.AddIssue("structure", fmt.Sprintf("marker pattern '%s' is invalid", m.Marker), "marker")
		}
	}

	root := m.RootDir()
	info, err := os.Stat(root)
	if err != nil {
		result.AddIssue("structure", fmt.Sprintf("root does not exist: %s", root), "root")
	} else if !info.IsDir() {
		result.AddIssue("structure", fmt.Sprintf("root is not a directory: %s", root), "root")
	}

	return result
}

func schemeName(s version.Scheme) string {
	if s == "" {
		return string(version.SchemeSemVer)
	}
	return string(s)
}
