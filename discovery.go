package schemalane

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
)

// Discover walks cfg.MigrationsDir once, parses and validates every
// recognized file, and returns a totally-ordered Plan. It fails the whole
// walk atomically: any bad filename, duplicate version, or duplicate
// script aborts discovery with no partial Plan returned, per spec.md §4.3.
// Bad filenames are collected over the whole walk and reported together
// in one validation error.
func Discover(cfg Config) (Plan, error) {
	cfg = cfg.WithDefaults()

	if cfg.DatabaseURL != "" {
		if err := validatePostgresURL(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}

	entries, err := os.ReadDir(cfg.MigrationsDir)
	if err != nil {
		return nil, configErrorf("reading migrations directory %q: %w", cfg.MigrationsDir, err)
	}

	plan := make(Plan, 0, len(entries))
	var badNames []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		var kind MigrationKind
		switch filepath.Ext(name) {
		case ".sql":
			kind = MigrationKindSQL
		case ".rs":
			kind = MigrationKindRust
		default:
			continue
		}

		id, err := parseIdentifier(name, kind)
		if err != nil {
			badNames = append(badNames, errors.Unwrap(err))
			continue
		}

		path := filepath.Join(cfg.MigrationsDir, name)
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, configErrorf("reading migration file %q: %w", path, err)
		}

		migration := Migration{
			Kind:           id.kind,
			Version:        id.version,
			VersionDisplay: id.versionDisplay,
			Description:    id.descriptionDisp,
			Script:         name,
			Checksum:       checksum(payload),
		}
		if kind == MigrationKindSQL {
			migration.sql = payload
		}

		plan = append(plan, migration)
	}

	if len(badNames) > 0 {
		return nil, newError(KindValidation, errors.Join(badNames...))
	}

	if err := validatePlanUniqueness(plan); err != nil {
		return nil, err
	}

	sort.SliceStable(plan, func(i, j int) bool {
		if cmp := plan[i].Version.Compare(plan[j].Version); cmp != 0 {
			return cmp < 0
		}
		return plan[i].Script < plan[j].Script
	})

	logger := resolveLogger(cfg)
	logger.Debug().Str("dir", cfg.MigrationsDir).Int("count", len(plan)).Msg("discovered migrations")

	return plan, nil
}

func validatePlanUniqueness(plan Plan) error {
	byVersion := make(map[string]string, len(plan))
	byScript := make(map[string]struct{}, len(plan))

	for _, m := range plan {
		versionKey := m.Version.key()
		if existing, ok := byVersion[versionKey]; ok {
			return validationErrorf(
				"duplicate migration version %q: %q collides with %q", m.VersionDisplay, m.Script, existing,
			)
		}
		byVersion[versionKey] = m.Script

		if _, ok := byScript[m.Script]; ok {
			return validationErrorf("duplicate migration script %q", m.Script)
		}
		byScript[m.Script] = struct{}{}
	}

	return nil
}
