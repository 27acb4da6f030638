// Package discovery walks a descriptor root and finds the packages to ship.
//
// A package is a directory containing at least one regular file matching the
// marker pattern. Nested packages are separate entries. Symlinks are not
// followed.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMarker is the file pattern that makes a directory a package.
const DefaultMarker = "*.go"

// ErrNoPackages is returned when the root yields no packages.
var ErrNoPackages = errors.New("no packages found")

// Options controls a discovery walk.
type Options struct {
	// Marker is the glob a directory must contain a match for, against the
	// base name of a regular file. Empty means DefaultMarker.
	Marker string
	// Exclude holds globs applied to every path element; a matching element
	// prunes the subtree.
	Exclude []string
}

// Package is one discovered package.
type Package struct {
	// Path is the package directory relative to the root, "." for the root
	// itself.
	Path string
	// Files are the regular files of the package, relative to the root.
	Files []string
	// Bytes is the byte total of Files.
	Bytes int64
}

// Result is the outcome of a discovery walk, consumed by the archive step.
type Result struct {
	Root     string
	Packages []Package
	// Files and Bytes aggregate over all packages.
	Files int
	Bytes int64
}

// PackageNames returns the package paths in sorted order.
func (r *Result) PackageNames() []string {
	names := make([]string, 0, len(r.Packages))
	for _, p := range r.Packages {
		names = append(names, p.Path)
	}
	return names
}

// Find walks root and returns the discovered packages, sorted by path.
// ErrNoPackages is returned when nothing under root matches the marker.
func Find(root string, opts Options) (*Result, error) {
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	if _, err := filepath.Match(marker, ""); err != nil {
		return nil, fmt.Errorf("invalid marker pattern %q: %w", marker, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	pkgs := make(map[string]*Package)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if rel != "." && excluded(d.Name(), opts.Exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		// WalkDir does not follow symlinks; skip them explicitly so a link to
		// a matching file does not mark its directory as a package.
		if !d.Type().IsRegular() {
			return nil
		}

		matched, err := filepath.Match(marker, d.Name())
		if err != nil || !matched {
			return err
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		dir := filepath.Dir(rel)
		pkg, ok := pkgs[dir]
		if !ok {
			pkg = &Package{Path: dir}
			pkgs[dir] = pkg
		}
		pkg.Files = append(pkg.Files, rel)
		pkg.Bytes += fi.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk root: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w under %s (marker %s)", ErrNoPackages, root, marker)
	}

	result := &Result{Root: root}
	paths := make([]string, 0, len(pkgs))
	for p := range pkgs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		pkg := pkgs[p]
		sort.Strings(pkg.Files)
		result.Packages = append(result.Packages, *pkg)
		result.Files += len(pkg.Files)
		result.Bytes += pkg.Bytes
	}

	return result, nil
}

// excluded reports whether a path element matches any exclusion glob.
func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if matched, err := filepath.Match(p, name); err == nil && matched {
			return true
		}
	}
	// Hidden entries are never packages.
	return strings.HasPrefix(name, ".")
}
