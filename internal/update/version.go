package update

import (
	"fmt"
	"strings"
)

// BuildDelimiter introduces the pre-release qualifier in the patch segment,
// e.g. "1.4.0-beta3".
const BuildDelimiter = "-beta"

// ParseError reports a version string that cannot be split into
// major.minor.patch.
type ParseError struct {
	Version string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version format: %q (want major.minor.patch)", e.Version)
}

// Version is a parsed plugin version.
type Version struct {
	Major    int
	Minor    int
	Patch    int
	BuildID  int
	HasBuild bool
}

// ParseVersion parses "major.minor.patch" with an optional "-beta<id>" suffix
// on the patch segment or a fourth ".<id>" segment. Numeric parts are parsed
// permissively: non-numeric content parses as 0.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 3 {
		return Version{}, &ParseError{Version: s}
	}

	v := Version{
		Major: atoiPrefix(parts[0]),
		Minor: atoiPrefix(parts[1]),
	}

	if len(parts) > 3 {
		v.BuildID = atoiPrefix(parts[3])
		v.HasBuild = true
	}

	patch := strings.Split(parts[2], BuildDelimiter)
	v.Patch = atoiPrefix(patch[0])
	if len(patch) > 1 {
		v.BuildID = atoiPrefix(patch[1])
		v.HasBuild = true
	}

	return v, nil
}

// CompareTo reports how candidate relates to v (the running version):
//   - 1 if candidate is newer
//   - 0 if they are equal
//   - -1 if candidate is older
//
// Build ids only break ties between equal triples. A release without a build
// id supersedes a build of the same triple, and between two builds the higher
// id wins. When v has no build id the candidate's build id is ignored.
func (v Version) CompareTo(candidate Version) int {
	if c := compareInt(candidate.Major, v.Major); c != 0 {
		return c
	}
	if c := compareInt(candidate.Minor, v.Minor); c != 0 {
		return c
	}
	if c := compareInt(candidate.Patch, v.Patch); c != 0 {
		return c
	}

	if !v.HasBuild {
		return 0
	}
	if !candidate.HasBuild {
		return 1
	}
	return compareInt(candidate.BuildID, v.BuildID)
}

// CompareVersions parses both strings and compares candidate against current.
// See Version.CompareTo for the result.
func CompareVersions(current, candidate string) (int, error) {
	cur, err := ParseVersion(current)
	if err != nil {
		return 0, fmt.Errorf("current version: %w", err)
	}
	cand, err := ParseVersion(candidate)
	if err != nil {
		return 0, fmt.Errorf("candidate version: %w", err)
	}
	return cur.CompareTo(cand), nil
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
