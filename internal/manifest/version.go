package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b. A leading "v" is ignored.
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("failed to parse version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("failed to parse version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// Outdated reports whether the entry was generated by an older overlay
// version than this binary produces. Unparseable versions count as outdated.
func Outdated(entry Entry) bool {
	cmp, err := CompareVersions(entry.PackageVersion, PackageVersion)
	if err != nil {
		return true
	}
	return cmp < 0
}

func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
