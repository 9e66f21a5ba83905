package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// CurrentVersion is the format version written by this build.
const CurrentVersion = "2.3"

// Current is CurrentVersion parsed.
var Current = Version{Major: 2, Minor: 3}

// Version is a "<major>.<minor>" format version. Majors are incompatible;
// an older minor is upgraded by the migration table.
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses "<major>.<minor>". A bare major means minor zero.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("wire: empty version")
	}
	majorStr, minorStr, hasMinor := strings.Cut(s, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 {
		return Version{}, fmt.Errorf("wire: invalid version %q", s)
	}
	minor := 0
	if hasMinor {
		minor, err = strconv.Atoi(minorStr)
		if err != nil || minor < 0 {
			return Version{}, fmt.Errorf("wire: invalid version %q", s)
		}
	}
	return Version{Major: major, Minor: minor}, nil
}

// MustParseVersion is ParseVersion for constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// Compatible reports whether a document at v can be read by this build.
func (v Version) Compatible() bool {
	return v.Major == Current.Major
}
