package schemalane

import (
	"regexp"
	"strings"
)

// MigrationKind distinguishes the two migration classes the engine
// understands. MigrationKindRust is the historical name carried over from
// the naming in the original implementation; any non-SQL class is
// "executor-backed".
type MigrationKind string

const (
	MigrationKindSQL  MigrationKind = "SQL"
	MigrationKindRust MigrationKind = "RUST"
)

var (
	sqlFilenamePattern  = regexp.MustCompile(`^V(?P<version>[0-9]+(?:[._][0-9]+)*)__(?P<description>[a-z0-9_]+)\.sql$`)
	rustFilenamePattern = regexp.MustCompile(`^V(?P<version>[0-9]+(?:[._][0-9]+)*)__(?P<description>[a-z0-9_]+)\.rs$`)
)

// identifier is the result of parsing one migration filename.
type identifier struct {
	kind            MigrationKind
	versionDisplay  string
	version         VersionVector
	description     string
	descriptionDisp string
}

// parseIdentifier matches fileName against the filename grammar for the
// given kind and extracts (version, description). It does not touch the
// filesystem; discovery is responsible for reading the payload.
func parseIdentifier(fileName string, kind MigrationKind) (identifier, error) {
	var pattern *regexp.Regexp
	var ext string
	switch kind {
	case MigrationKindSQL:
		pattern, ext = sqlFilenamePattern, "sql"
	case MigrationKindRust:
		pattern, ext = rustFilenamePattern, "rs"
	default:
		return identifier{}, validationErrorf("unknown migration kind %q", kind)
	}

	match := pattern.FindStringSubmatch(fileName)
	if match == nil {
		return identifier{}, validationErrorf(
			"invalid migration filename %q: expected V<version>__<description>.%s", fileName, ext,
		)
	}

	versionDisplay := match[pattern.SubexpIndex("version")]
	description := match[pattern.SubexpIndex("description")]

	version, err := parseVersionVector(versionDisplay)
	if err != nil {
		return identifier{}, err
	}

	return identifier{
		kind:            kind,
		versionDisplay:  versionDisplay,
		version:         version,
		description:     description,
		descriptionDisp: strings.ReplaceAll(description, "_", " "),
	}, nil
}
