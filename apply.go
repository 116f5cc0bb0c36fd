package schemalane

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/schemalane/schemalane/internal/models"
	"github.com/schemalane/schemalane/internal/repository"
)

// Up applies every Plan entry not yet recorded as a successful,
// checksum-matching history row. It takes the advisory lock for the
// duration of the call, so at most one Up or Fresh runs against a given
// database at a time (spec.md §4.5, §5).
func Up(ctx context.Context, db *gorm.DB, cfg Config, registry *ExecutorRegistry) (RunReport, error) {
	cfg = cfg.WithDefaults()

	plan, err := Discover(cfg)
	if err != nil {
		return RunReport{}, err
	}

	if err := ensureExecutorsRegistered(plan, registry); err != nil {
		return RunReport{}, err
	}

	logger := resolveLogger(cfg)

	var report RunReport
	err = withAdvisoryLock(ctx, db, logger, func(locked *gorm.DB) error {
		if err := repository.Bootstrap(locked, cfg.Schema, cfg.HistoryTable); err != nil {
			return newError(KindDatabase, err)
		}

		installedBy, err := resolveInstalledBy(locked, cfg)
		if err != nil {
			return err
		}

		history, err := repository.Load(locked, cfg.Schema, cfg.HistoryTable)
		if err != nil {
			return newError(KindDatabase, err)
		}

		if err := checkBlockingHistory(plan, history); err != nil {
			return err
		}

		latest := latestHistoryByVersion(history)

		for _, migration := range plan {
			if row, ok := latest[migration.VersionDisplay]; ok && row.Success && checksumsEqual(row.Checksum, migration.Checksum) {
				report.Skipped++
				continue
			}

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

// applyOne executes a single migration, measures its wall-clock duration,
// and appends exactly one history row regardless of outcome. On failure
// the row is appended before the error is returned to the caller, so the
// audit trail survives even though the migration's own transaction rolled
// back (spec.md §4.4, §9).
func applyOne(
	ctx context.Context,
	locked *gorm.DB,
	cfg Config,
	registry *ExecutorRegistry,
	migration Migration,
	installedBy string,
) (AppliedMigration, error) {
	started := time.Now()
	runErr := executeMigration(ctx, locked, registry, migration)
	elapsedMS := int(time.Since(started).Milliseconds())

	logger := resolveLogger(cfg)
	logEvent := logger.Info()
	if runErr != nil {
		logEvent = logger.Error().Err(runErr)
	}
	logEvent.
		Str("version", migration.VersionDisplay).
		Str("script", migration.Script).
		Str("type", string(migration.Kind)).
		Int("duration_ms", elapsedMS).
		Msg("applied migration")

	appendErr := appendHistoryRow(locked, cfg, migration, installedBy, elapsedMS, runErr == nil)
	if runErr != nil {
		if appendErr != nil {
			return AppliedMigration{}, newError(KindDatabase, fmt.Errorf(
				"migration %s failed (%v) and recording the failure also failed: %w", migration.Script, runErr, appendErr,
			))
		}
		return AppliedMigration{}, newError(KindDatabase, fmt.Errorf("migration %s failed: %w", migration.Script, runErr))
	}
	if appendErr != nil {
		return AppliedMigration{}, newError(KindDatabase, appendErr)
	}

	return AppliedMigration{
		Version:         migration.VersionDisplay,
		Description:     migration.Description,
		Type:            migration.Kind,
		Script:          migration.Script,
		ExecutionTimeMS: elapsedMS,
	}, nil
}

// executeMigration runs migration's payload: a SQL file is always
// executed inside a transaction the engine manages; an executor-backed
// migration runs inside a transaction unless it declared NoTransaction.
func executeMigration(ctx context.Context, locked *gorm.DB, registry *ExecutorRegistry, migration Migration) error {
	switch migration.Kind {
	case MigrationKindSQL:
		return locked.Transaction(func(tx *gorm.DB) error {
			return tx.Exec(string(migration.sql)).Error
		})

	case MigrationKindRust:
		executor, ok := registry.Resolve(migration.Script)
		if !ok {
			return newError(KindConfig, fmt.Errorf("no executor registered for script %q", migration.Script))
		}

		if executor.NoTransaction() {
			conn, err := rawConn(locked)
			if err != nil {
				return err
			}
			return executor.Run(ctx, sqlConnAdapter{conn})
		}

		return locked.Transaction(func(tx *gorm.DB) error {
			conn, err := rawConn(tx)
			if err != nil {
				return err
			}
			return executor.Run(ctx, sqlConnAdapter{conn})
		})

	default:
		return newError(KindConfig, fmt.Errorf("unknown migration kind %q", migration.Kind))
	}
}

func appendHistoryRow(locked *gorm.DB, cfg Config, migration Migration, installedBy string, elapsedMS int, success bool) error {
	_, err := repository.Append(locked, cfg.Schema, cfg.HistoryTable, repository.AppendRequest{
		Version:       migration.VersionDisplay,
		Description:   migration.Description,
		Type:          string(migration.Kind),
		Script:        migration.Script,
		Checksum:      migration.Checksum,
		InstalledBy:   installedBy,
		ExecutionTime: elapsedMS,
		Success:       success,
	})
	return err
}

// checkBlockingHistory implements spec.md §4.7 step 5: a prior failed row
// blocks the run outright (exit 4); a checksum mismatch on an otherwise
// successful row is drift and also blocks the run, but with a different
// exit code (3), before anything is applied.
func checkBlockingHistory(plan Plan, history []models.HistoryRow) error {
	latest := latestHistoryByVersion(history)

	var failedScripts []string
	for _, row := range latest {
		if !row.Success {
			failedScripts = append(failedScripts, row.Script)
		}
	}
	if len(failedScripts) > 0 {
		return newError(KindFailedPresent, fmt.Errorf(
			"failed migration(s) present in history, fix manually before retrying: %v", failedScripts,
		))
	}

	var mismatched []string
	for _, migration := range plan {
		row, ok := latest[migration.VersionDisplay]
		if !ok || !row.Success {
			continue
		}
		if !checksumsEqual(row.Checksum, migration.Checksum) {
			mismatched = append(mismatched, migration.Script)
		}
	}
	if len(mismatched) > 0 {
		return newError(KindDrift, fmt.Errorf("checksum mismatch for: %v", mismatched))
	}

	return nil
}

func ensureExecutorsRegistered(plan Plan, registry *ExecutorRegistry) error {
	var missing []string
	for _, migration := range plan {
		if migration.Kind != MigrationKindRust {
			continue
		}
		if _, ok := registry.Resolve(migration.Script); !ok {
			missing = append(missing, migration.Script)
		}
	}
	if len(missing) > 0 {
		return newError(KindConfig, fmt.Errorf("missing executor(s) for script(s): %v", missing))
	}
	return nil
}

func resolveInstalledBy(db *gorm.DB, cfg Config) (string, error) {
	if cfg.InstalledBy != "" {
		return cfg.InstalledBy, nil
	}

	var currentUser string
	if err := db.Raw("SELECT current_user").Scan(&currentUser).Error; err != nil {
		return "", newError(KindDatabase, err)
	}
	return currentUser, nil
}

// latestHistoryByVersion joins Plan entries to history rows by version,
// per spec.md §4.7 step 3 ("Build applied_by_version: version_display ->
// most-recent row") and §4.8, not by script name: a row whose migration
// file was later renamed without changing its version must still be found
// by this join. A row with no recorded version (none is ever written by
// Append, but the column is nullable for forward compatibility) cannot
// participate in the join and is surfaced as Missing by evaluateStatus
// instead of silently disappearing.
func latestHistoryByVersion(history []models.HistoryRow) map[string]models.HistoryRow {
	latest := make(map[string]models.HistoryRow, len(history))
	for _, row := range history {
		if row.Version == nil {
			continue
		}
		latest[*row.Version] = row
	}
	return latest
}

func checksumsEqual(a *int32, b int32) bool {
	return a != nil && *a == b
}
