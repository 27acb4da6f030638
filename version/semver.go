package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	SemVerRegexWithoutPreRelease = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)
	SemVerRegex                  = regexp.MustCompile(`^(v)?(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?$`)
)

// ParseSemVer parses a semantic version string with an optional "v" prefix
// and an optional pre-release. Build metadata is not accepted: the "+" part
// of a shipped version belongs to the build suffix, never to the base.
// Returns nil when the string does not parse.
func ParseSemVer(version string) *SemVer {
	match := SemVerRegex.FindStringSubmatch(version)
	if match == nil {
		return nil
	}

	v := match[1]
	major, _ := strconv.Atoi(match[2])
	minor, _ := strconv.Atoi(match[3])
	patch, _ := strconv.Atoi(match[4])
	preRelease := match[5]

	return &SemVer{
		V:          v,
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		PreRelease: preRelease,
	}
}

type SemVer struct {
	V          string
	Major      int
	Minor      int
	Patch      int
	PreRelease string
}

// Compare returns positive if v > other, negative if v < other, 0 if equal.
// A stable version orders above any pre-release of the same triple.
func (v *SemVer) Compare(other *SemVer) int {
	if v.Major != other.Major {
		return v.Major - other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor - other.Minor
	}
	if v.Patch != other.Patch {
		return v.Patch - other.Patch
	}
	if v.PreRelease == "" && other.PreRelease != "" {
		return 1
	}
	if v.PreRelease != "" && other.PreRelease == "" {
		return -1
	}
	return strings.Compare(v.PreRelease, other.PreRelease)
}

func (v *SemVer) String() string {
	var pre string
	if v.PreRelease != "" {
		pre = fmt.Sprintf("-%s", v.PreRelease)
	}
	return fmt.Sprintf("%s%d.%d.%d%s", v.V, v.Major, v.Minor, v.Patch, pre)
}

// Bare returns the version without the "v" prefix. Shipped descriptors carry
// bare versions even when the source resolved a tag-shaped name.
func (v *SemVer) Bare() string {
	bare := *v
	bare.V = ""
	return bare.String()
}

// FindLatestSemVer finds the highest semantic version among names. Names that
// do not parse are skipped. Pre-release versions are excluded unless
// allowPreRelease is set.
func FindLatestSemVer(versionNames []string, allowPreRelease bool) (*SemVer, string, error) {
	var latestVersion *SemVer
	var latestName string

	for _, name := range versionNames {
		ver := ParseSemVer(name)
		if ver == nil {
			continue
		}
		if !allowPreRelease && ver.PreRelease != "" {
			continue
		}
		if latestVersion == nil || ver.Compare(latestVersion) > 0 {
			latestVersion = ver
			latestName = name
		}
	}

	if latestVersion == nil {
		return nil, "", fmt.Errorf("no valid versioned name found")
	}

	return latestVersion, latestName, nil
}
