// Package repository implements the History Gateway: the only component
// that reads or writes the flyway_schema_history table.
package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/schemalane/schemalane/internal/models"
)

// QuoteIdent double-quotes a PostgreSQL identifier, escaping embedded
// quotes, so that configurable schema/table names can be interpolated into
// DDL safely even though they cannot be bound as query parameters.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedTable returns schema.table with both identifiers quoted.
func QualifiedTable(schema, table string) string {
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}

// Bootstrap creates the history table and its two secondary indexes
// (success, version) if they are not already present. It is idempotent:
// calling it against an existing table is a no-op that alters nothing,
// per spec.md §8's bootstrap-idempotence invariant.
func Bootstrap(db *gorm.DB, schema, table string) error {
	qualified := QualifiedTable(schema, table)
	pk := QuoteIdent(table + "_pk")
	successIdx := QuoteIdent(table + "_s_idx")
	versionIdx := QuoteIdent(table + "_v_idx")

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
"installed_rank" INTEGER NOT NULL,
"version" VARCHAR(50),
"description" VARCHAR(200) NOT NULL,
"type" VARCHAR(20) NOT NULL,
"script" VARCHAR(1000) NOT NULL,
"checksum" INTEGER,
"installed_by" VARCHAR(100) NOT NULL,
"installed_on" TIMESTAMPTZ NOT NULL DEFAULT now(),
"execution_time" INTEGER NOT NULL,
"success" BOOLEAN NOT NULL,
CONSTRAINT %s PRIMARY KEY ("installed_rank")
)`, qualified, pk)

	if err := db.Exec(ddl).Error; err != nil {
		return err
	}

	indexDDL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s ("success")`, successIdx, qualified)
	if err := db.Exec(indexDDL).Error; err != nil {
		return err
	}

	indexDDL = fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s ("version")`, versionIdx, qualified)
	return db.Exec(indexDDL).Error
}

// Exists reports whether the history table is currently visible via
// to_regclass, without creating it. Status uses this so that it can run
// against a fresh database (no table yet) and simply report everything
// Pending, rather than forcing Bootstrap as a read-only operation would.
func Exists(db *gorm.DB, schema, table string) (bool, error) {
	regclass := schema + "." + table
	var exists bool
	err := db.Raw(`SELECT to_regclass(?) IS NOT NULL AS exists`, regclass).Scan(&exists).Error
	return exists, err
}

// Load returns every row in the history table ordered by installed_rank
// ascending. The gateway performs no filtering or interpretation; callers
// (Apply Engine, Status Evaluator) decide what the rows mean.
func Load(db *gorm.DB, schema, table string) ([]models.HistoryRow, error) {
	qualified := QualifiedTable(schema, table)
	query := fmt.Sprintf(
		`SELECT "installed_rank","version","description","type","script","checksum","installed_by","installed_on","execution_time","success" FROM %s ORDER BY "installed_rank" ASC`,
		qualified,
	)

	var rows []models.HistoryRow
	if err := db.Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendRequest carries the fields needed to record one apply attempt.
type AppendRequest struct {
	Version       string
	Description   string
	Type          string
	Script        string
	Checksum      int32
	InstalledBy   string
	ExecutionTime int
	Success       bool
}

// Append atomically assigns the next installed_rank (one greater than the
// current maximum, or 1 if the table is empty) and inserts a row. It must
// be called on a *gorm.DB that is not inside the migration's own
// transaction, so that a failure row survives rollback of the migration's
// DDL (spec.md §4.4, §9).
func Append(db *gorm.DB, schema, table string, req AppendRequest) (int, error) {
	qualified := QualifiedTable(schema, table)

	var rank int
	rankQuery := fmt.Sprintf(`SELECT COALESCE(MAX("installed_rank"), 0) + 1 FROM %s`, qualified)
	if err := db.Raw(rankQuery).Scan(&rank).Error; err != nil {
		return 0, err
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s ("installed_rank","version","description","type","script","checksum","installed_by","execution_time","success") VALUES (?,?,?,?,?,?,?,?,?)`,
		qualified,
	)

	err := db.Exec(
		insert,
		rank,
		req.Version,
		req.Description,
		req.Type,
		req.Script,
		req.Checksum,
		req.InstalledBy,
		req.ExecutionTime,
		req.Success,
	).Error
	if err != nil {
		return 0, err
	}

	return rank, nil
}
