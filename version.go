package schemalane

import (
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^[0-9]+([._][0-9]+)*$`)

// VersionVector is a migration version parsed into its numeric segments.
// Comparing version strings lexicographically would rank "V10" before
// "V2"; comparing the parsed integer segments does not. A shorter vector
// sorts before a longer one when the shared prefix is equal, so "2" < "2.1".
type VersionVector []int64

// parseVersionVector splits on '.' or '_' and parses each segment as a
// non-negative integer. Leading zeros are accepted; only the integer value
// participates in ordering.
func parseVersionVector(versionDisplay string) (VersionVector, error) {
	if !versionPattern.MatchString(versionDisplay) {
		return nil, validationErrorf("invalid version %q: expected ^[0-9]+([._][0-9]+)*$", versionDisplay)
	}

	parts := strings.FieldsFunc(versionDisplay, func(r rune) bool {
		return r == '.' || r == '_'
	})

	segments := make(VersionVector, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, validationErrorf("invalid version segment %q in %q", part, versionDisplay)
		}
		segments = append(segments, n)
	}

	return segments, nil
}

// Compare returns -1, 0, or 1 as v sorts before, equal to, or after other,
// per spec.md §4.3: lexicographic comparison of integer sequences, shorter
// is less than longer when the shared prefix is equal.
func (v VersionVector) Compare(other VersionVector) int {
	for i := 0; i < len(v) && i < len(other); i++ {
		if v[i] < other[i] {
			return -1
		}
		if v[i] > other[i] {
			return 1
		}
	}
	switch {
	case len(v) < len(other):
		return -1
	case len(v) > len(other):
		return 1
	default:
		return 0
	}
}

func (v VersionVector) Equal(other VersionVector) bool {
	return v.Compare(other) == 0
}

// key returns a string suitable for use as a map key, since a slice
// cannot be compared or hashed directly. Equal vectors with the same
// length always produce the same key; this is only used for exact-match
// uniqueness checks, never for ordering.
func (v VersionVector) key() string {
	var b strings.Builder
	for i, segment := range v {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatInt(segment, 10))
	}
	return b.String()
}
