package update

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Relation describes how a candidate version relates to the current one.
type Relation int

const (
	RelationUnordered Relation = iota // at least one side is not semver
	RelationUpgrade
	RelationDowngrade
	RelationSame
)

// String returns a short verb for the relation.
func (r Relation) String() string {
	switch r {
	case RelationUpgrade:
		return "upgrade"
	case RelationDowngrade:
		return "downgrade"
	case RelationSame:
		return "reinstall"
	default:
		return "replace"
	}
}

// CompareVersions relates candidate to current. Versions are opaque strings;
// ordering is only reported when both sides are semantic versions, with or
// without a leading "v".
func CompareVersions(current, candidate string) Relation {
	c := canonical(current)
	n := canonical(candidate)
	if c == "" || n == "" {
		if NormalizeVersion(current) != "" && NormalizeVersion(current) == NormalizeVersion(candidate) {
			return RelationSame
		}
		return RelationUnordered
	}

	switch semver.Compare(c, n) {
	case -1:
		return RelationUpgrade
	case 1:
		return RelationDowngrade
	default:
		return RelationSame
	}
}

// NormalizeVersion removes surrounding space and the 'v' prefix if present
func NormalizeVersion(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "v")
}

// canonical returns the semver form of s, or "" when s is not semver.
func canonical(s string) string {
	v := "v" + NormalizeVersion(s)
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
