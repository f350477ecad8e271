package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned by Parse for strings that are not
// dot-separated non-negative integers.
var ErrInvalidFormat = errors.New("invalid version format")

// Version is a parsed app version. The zero value is "0.0.0".
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse parses a version string such as "3.2.11". Missing components are
// padded with zeros, so "2" parses as 2.0.0 and "1.5" as 1.5.0. A single
// leading "v" or "V" is tolerated ("v1.2.3"). Anything else - empty input,
// more than three components, signs, letters, empty components - is
// rejected with an error wrapping ErrInvalidFormat.
func Parse(s string) (Version, error) {
	raw := s
	s = strings.TrimSpace(s)
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') {
		s = s[1:]
	}
	if s == "" {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}

	var nums [3]int
	for i, part := range parts {
		if !isDigits(part) {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse is Parse for trusted input. It panics on malformed versions and
// is meant for constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// isDigits reports whether s is non-empty and consists of ASCII digits only.
// strconv.Atoi alone is too permissive here: it accepts "-2" and "+2".
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String returns the canonical three-component form, e.g. "2.0.0".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1 if v is older than other, 0 if they are equal and 1 if
// v is newer. Precedence is lexicographic over (major, minor, patch).
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return compareInt(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return compareInt(v.Minor, other.Minor)
	}
	return compareInt(v.Patch, other.Patch)
}

// MeetsMinimum reports whether v satisfies the floor min, i.e. v >= min.
// A version always meets itself.
func (v Version) MeetsMinimum(min Version) bool {
	return v.Compare(min) >= 0
}

// LessThan reports whether v is strictly older than other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether v and other denote the same version.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
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
