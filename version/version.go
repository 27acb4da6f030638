package version

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TimestampLayout is the layout of the build suffix appended to a base
	// version, rendered in UTC with second resolution.
	TimestampLayout = "20060102.150405"

	// Separator joins the base version and the build suffix.
	Separator = "+"
)

var (
	// ErrInvalidVersion is returned when a base version is empty or already
	// carries a separator.
	ErrInvalidVersion = errors.New("invalid base version")

	// ErrClockUnavailable is returned when the clock cannot provide the
	// current time.
	ErrClockUnavailable = errors.New("clock unavailable")
)

// Clock provides the current time. Production code uses time.Now; tests
// inject fixed instants.
type Clock func() time.Time

// Generator stamps base versions with a UTC build suffix.
type Generator struct {
	clock Clock
}

// NewGenerator returns a Generator. A nil clock falls back to time.Now.
func NewGenerator(clock Clock) *Generator {
	if clock == nil {
		clock = time.Now
	}
	return &Generator{clock: clock}
}

// Generate returns base + "+" + the current UTC time as YYYYMMDD.HHMMSS.
// The suffix always reflects the instant of the call; nothing is cached.
// Two calls within the same second return the same string.
func (g *Generator) Generate(base string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("%w: base version is empty", ErrInvalidVersion)
	}
	if strings.Contains(base, Separator) {
		return "", fmt.Errorf("%w: base version %q already contains %q", ErrInvalidVersion, base, Separator)
	}

	now := g.clock()
	if now.IsZero() {
		return "", ErrClockUnavailable
	}

	return base + Separator + now.UTC().Format(TimestampLayout), nil
}

// Version is a common interface for version types (SemVer, CalVer).
type Version interface {
	String() string
}

// Scheme names a versioning convention for base versions.
type Scheme string

const (
	SchemeSemVer Scheme = "semver"
	SchemeCalVer Scheme = "calver"
)

// Parse validates a base version against the scheme and returns the parsed
// form. The format argument is only consulted for calver.
func (s Scheme) Parse(base, format string) (Version, error) {
	switch s {
	case SchemeSemVer, "":
		v := ParseSemVer(base)
		if v == nil {
			return nil, fmt.Errorf("%w: %q is not a semantic version", ErrInvalidVersion, base)
		}
		return v, nil

	case SchemeCalVer:
		f, err := NewCalVerFormat(format)
		if err != nil {
			return nil, err
		}
		v := f.Parse(base)
		if v == nil {
			return nil, fmt.Errorf("%w: %q does not match calver format %s", ErrInvalidVersion, base, format)
		}
		return v, nil
	}

	return nil, fmt.Errorf("unsupported version scheme: %s", s)
}
