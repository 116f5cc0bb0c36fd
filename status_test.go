package schemalane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemalane/schemalane/internal/models"
)

func mustVersion(t *testing.T, s string) VersionVector {
	t.Helper()
	v, err := parseVersionVector(s)
	require.NoError(t, err)
	return v
}

func versionPtr(s string) *string { return &s }

func TestEvaluateStatusPendingWhenNoHistoryRow(t *testing.T) {
	plan := Plan{
		{Kind: MigrationKindSQL, Version: mustVersion(t, "1"), VersionDisplay: "1", Script: "V1__init.sql", Checksum: 42},
	}

	report := evaluateStatus("public", "flyway_schema_history", plan, nil)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, StatePending, report.Entries[0].State)
	assert.Equal(t, 1, report.Summary.Pending)
}

func TestEvaluateStatusSuccessWhenChecksumMatches(t *testing.T) {
	plan := Plan{
		{Kind: MigrationKindSQL, Version: mustVersion(t, "1"), VersionDisplay: "1", Script: "V1__init.sql", Checksum: 42},
	}
	checksum := int32(42)
	history := []models.HistoryRow{
		{InstalledRank: 1, Version: versionPtr("1"), Script: "V1__init.sql", Checksum: &checksum, Success: true},
	}

	report := evaluateStatus("public", "flyway_schema_history", plan, history)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, StateSuccess, report.Entries[0].State)
	assert.Equal(t, 1, report.Summary.Success)
}

func TestEvaluateStatusChecksumMismatch(t *testing.T) {
	plan := Plan{
		{Kind: MigrationKindSQL, Version: mustVersion(t, "1"), VersionDisplay: "1", Script: "V1__init.sql", Checksum: 42},
	}
	stale := int32(99)
	history := []models.HistoryRow{
		{InstalledRank: 1, Version: versionPtr("1"), Script: "V1__init.sql", Checksum: &stale, Success: true},
	}

	report := evaluateStatus("public", "flyway_schema_history", plan, history)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, StateChecksumMismatch, report.Entries[0].State)
	assert.Equal(t, 1, report.Summary.ChecksumMismatch)
}

func TestEvaluateStatusFailedRowBeatsEverythingElse(t *testing.T) {
	plan := Plan{
		{Kind: MigrationKindSQL, Version: mustVersion(t, "1"), VersionDisplay: "1", Script: "V1__init.sql", Checksum: 42},
	}
	history := []models.HistoryRow{
		{InstalledRank: 1, Version: versionPtr("1"), Script: "V1__init.sql", Success: false},
	}

	report := evaluateStatus("public", "flyway_schema_history", plan, history)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, StateFailed, report.Entries[0].State)
	assert.Equal(t, 4, report.ExitCode(false))
}

func TestEvaluateStatusMissingWhenHistoryHasNoPlanEntry(t *testing.T) {
	history := []models.HistoryRow{
		{InstalledRank: 1, Version: versionPtr("1"), Script: "V1__deleted_from_disk.sql", Success: true},
	}

	report := evaluateStatus("public", "flyway_schema_history", nil, history)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, StateMissing, report.Entries[0].State)
	assert.Equal(t, 3, report.ExitCode(false))
}

func TestEvaluateStatusOrdersByVersionNotLexically(t *testing.T) {
	plan := Plan{
		{Kind: MigrationKindSQL, Version: mustVersion(t, "10"), VersionDisplay: "10", Script: "V10__tenth.sql", Checksum: 1},
		{Kind: MigrationKindSQL, Version: mustVersion(t, "2"), VersionDisplay: "2", Script: "V2__second.sql", Checksum: 1},
	}

	report := evaluateStatus("public", "flyway_schema_history", plan, nil)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, "V2__second.sql", report.Entries[0].Script)
	assert.Equal(t, "V10__tenth.sql", report.Entries[1].Script)
}

func TestStatusReportExitCodePrecedence(t *testing.T) {
	clean := StatusReport{Summary: StatusSummary{Pending: 3}}
	assert.Equal(t, 0, clean.ExitCode(false))
	assert.Equal(t, ExitCodePendingMigrations, clean.ExitCode(true))

	drift := StatusReport{Summary: StatusSummary{Pending: 1, ChecksumMismatch: 1}}
	assert.Equal(t, 3, drift.ExitCode(true))

	failed := StatusReport{Summary: StatusSummary{Failed: 1, ChecksumMismatch: 1}}
	assert.Equal(t, 4, failed.ExitCode(true))
}
