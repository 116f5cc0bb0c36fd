package schemalane

// AppliedMigration records one migration that Up or Fresh actually ran
// during the current call, together with how long it took.
type AppliedMigration struct {
	Version         string        `json:"version"`
	Description     string        `json:"description"`
	Type            MigrationKind `json:"type"`
	Script          string        `json:"script"`
	ExecutionTimeMS int           `json:"execution_time_ms"`
}

// RunReport is returned by Up and Fresh: the ordered list of migrations
// applied during this call, plus a count of migrations that were already
// up to date and therefore skipped.
type RunReport struct {
	Applied []AppliedMigration `json:"applied"`
	Skipped int                `json:"skipped"`
}
