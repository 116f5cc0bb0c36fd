package schemalane

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/schemalane/schemalane/internal/repository"
)

// Fresh drops every table in the configured schema (including the
// history table itself), re-bootstraps a clean history table, and then
// runs the full Up sequence. It is destructive and irreversible, so it
// refuses to run at all without confirmed=true, before acquiring the
// advisory lock or touching the database (spec.md §4.9).
func Fresh(ctx context.Context, db *gorm.DB, cfg Config, registry *ExecutorRegistry, confirmed bool) (RunReport, error) {
	if !confirmed {
		return RunReport{}, newError(KindDestructiveGuard, fmt.Errorf("fresh requires --yes confirmation"))
	}

	cfg = cfg.WithDefaults()

	plan, err := Discover(cfg)
	if err != nil {
		return RunReport{}, err
	}
	if err := ensureExecutorsRegistered(plan, registry); err != nil {
		return RunReport{}, err
	}

	var report RunReport
	err = withAdvisoryLock(ctx, db, resolveLogger(cfg), func(locked *gorm.DB) error {
		if err := dropAllTables(locked, cfg.Schema); err != nil {
			return newError(KindDatabase, err)
		}
		if err := repository.Bootstrap(locked, cfg.Schema, cfg.HistoryTable); err != nil {
			return newError(KindDatabase, err)
		}

		installedBy, err := resolveInstalledBy(locked, cfg)
		if err != nil {
			return err
		}

		for _, migration := range plan {
			applied, runErr := applyOne(ctx, locked, cfg, registry, migration, installedBy)
			if runErr != nil {
				return runErr
			}
			report.Applied = append(report.Applied, applied)
		}

		return nil
	})
	if err != nil {
		return RunReport{}, err
	}

	return report, nil
}

// dropAllTables enumerates every table in schema via pg_catalog.pg_tables
// and drops each one CASCADE. It never drops the database and
// never touches any schema other than the configured one (spec.md §4.9).
func dropAllTables(db *gorm.DB, schema string) error {
	var tableNames []string
	err := db.Raw(
		`SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = ? ORDER BY tablename`, schema,
	).Scan(&tableNames).Error
	if err != nil {
		return err
	}

	for _, table := range tableNames {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", repository.QualifiedTable(schema, table))
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
