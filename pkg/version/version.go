package version

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// The release versioning grammar: `major[.minor[.patch]]` with an optional
// `-beta.N` suffix (and an optional leading `v`). Anything else, including
// other pre-release markers and build metadata, is rejected.
var versionRegexp = regexp.MustCompile(`^v?[0-9]+(\.[0-9]+){0,2}(-beta\.[0-9]+)?$`)

var zero = semver.MustParse("0.0.0")

// Version is an immutable, parsed application version. The zero value
// behaves as "0.0.0".
type Version struct {
	parsed *semver.Version
}

func Parse(text string) (Version, error) {
	if !versionRegexp.MatchString(text) {
		return Version{}, ErrInvalidVersion{Input: text}
	}
	parsed, err := semver.NewVersion(text)
	if err != nil {
		return Version{}, ErrInvalidVersion{Input: text, Err: err}
	}
	return Version{parsed: parsed}, nil
}

func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) sv() *semver.Version {
	if v.parsed == nil {
		return zero
	}
	return v.parsed
}

func (v Version) Major() uint64 { return v.sv().Major() }
func (v Version) Minor() uint64 { return v.sv().Minor() }
func (v Version) Patch() uint64 { return v.sv().Patch() }

func (v Version) IsPrerelease() bool {
	return v.sv().Prerelease() != ""
}

// BetaNumber returns the sequence number of a beta version, or 0 for a
// final release.
func (v Version) BetaNumber() uint64 {
	prerelease := v.sv().Prerelease()
	if prerelease == "" {
		return 0
	}
	var n uint64
	fmt.Sscanf(prerelease, "beta.%d", &n)
	return n
}

// Compare returns -1, 0 or 1. A final release sorts after every beta of
// the same major.minor.patch; among betas the higher sequence number wins.
func (v Version) Compare(other Version) int {
	return v.sv().Compare(other.sv())
}

func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// String returns the canonical form `major.minor.patch[-beta.N]`, with
// omitted components normalized to zero.
func (v Version) String() string {
	return v.sv().String()
}
