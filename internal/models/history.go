// Package models holds the GORM-mapped row types persisted by Schemalane.
package models

import "time"

// HistoryRow is a Flyway-compatible record of one migration apply attempt.
// Its column set, widths, and nullability are fixed by spec.md §3 and must
// not drift: operators and CI systems outside this module read this table
// directly.
type HistoryRow struct {
	InstalledRank int       `gorm:"column:installed_rank;primaryKey"`
	Version       *string   `gorm:"column:version;size:50"`
	Description   string    `gorm:"column:description;size:200;not null"`
	Type          string    `gorm:"column:type;size:20;not null"`
	Script        string    `gorm:"column:script;size:1000;not null"`
	Checksum      *int32    `gorm:"column:checksum"`
	InstalledBy   string    `gorm:"column:installed_by;size:100;not null"`
	InstalledOn   time.Time `gorm:"column:installed_on;not null;default:now()"`
	ExecutionTime int       `gorm:"column:execution_time;not null"`
	Success       bool      `gorm:"column:success;not null"`
}

// TableName returns the default history table name. The repository does
// not use it: it issues raw SQL against the schema and table named in
// Config, so this default only applies when a caller uses the model with
// GORM directly and no explicit Table call.
func (HistoryRow) TableName() string {
	return "flyway_schema_history"
}
