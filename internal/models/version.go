// Package models - client version parsing and comparison.
//
// Client versions are compared numerically segment by segment, never as
// strings: "2.10.0" is newer than "2.1.0". Parsing is case-insensitive and
// accepts a leading "v". Versions with up to three segments go through
// semantic versioning rules (a pre-release sorts below its release); longer
// dotted versions such as Windows file versions ("2.1.0.4") are compared
// numerically over all their segments.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a parsed client version.
type Version struct {
	Raw      string          // Original version string
	sem      *semver.Version // nil when the version is not expressible as semver
	segments []int           // Numeric release segments
	pre      string          // Pre-release identifier, empty for releases
}

// ParseVersion parses a client version string.
//
// Supports formats:
// - "2.1.0", "v2.1.0", "V2.1.0"
// - "2.1" or "2" (missing components default to 0)
// - "2.1.0-beta.1", "2.1.0+build.7"
// - "2.1.0.4" (more than three numeric segments)
func ParseVersion(v string) (*Version, error) {
	raw := strings.TrimSpace(v)
	if raw == "" {
		return nil, errors.New("version string cannot be empty")
	}
	normalized := strings.ToLower(raw)

	if sv, err := semver.NewVersion(normalized); err == nil {
		return &Version{
			Raw:      raw,
			sem:      sv,
			segments: []int{int(sv.Major()), int(sv.Minor()), int(sv.Patch())},
			pre:      sv.Prerelease(),
		}, nil
	}

	release := strings.TrimPrefix(normalized, "v")
	if idx := strings.Index(release, "+"); idx != -1 {
		release = release[:idx]
	}
	pre := ""
	if idx := strings.Index(release, "-"); idx != -1 {
		pre = release[idx+1:]
		release = release[:idx]
	}

	parts := strings.Split(release, ".")
	segments := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q: segment %q is not numeric", raw, part)
		}
		segments = append(segments, n)
	}

	return &Version{Raw: raw, segments: segments, pre: pre}, nil
}

func (v *Version) String() string {
	return v.Raw
}

// Compare returns -1, 0 or +1 depending on whether v is older than, equal to
// or newer than other. Build metadata is ignored.
func (v *Version) Compare(other *Version) int {
	if v.sem != nil && other.sem != nil {
		return v.sem.Compare(other.sem)
	}

	n := len(v.segments)
	if len(other.segments) > n {
		n = len(other.segments)
	}
	for i := 0; i < n; i++ {
		if c := compareInt(segmentAt(v.segments, i), segmentAt(other.segments, i)); c != 0 {
			return c
		}
	}

	switch {
	case v.pre == "" && other.pre != "":
		return 1
	case v.pre != "" && other.pre == "":
		return -1
	default:
		return strings.Compare(v.pre, other.pre)
	}
}

func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}

func (v *Version) Equal(other *Version) bool {
	return v.Compare(other) == 0
}

// CompareVersions parses and compares two version strings.
func CompareVersions(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

func segmentAt(segments []int, i int) int {
	if i < len(segments) {
		return segments[i]
	}
	return 0
}

func compareInt(a, b int) int {
	if a > b {
		return 1
	}
	if a < b {
		return -1
	}
	return 0
}
