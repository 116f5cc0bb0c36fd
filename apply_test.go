package schemalane

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schemalane/schemalane/internal/models"
)

func TestCheckBlockingHistoryFailedRow(t *testing.T) {
	plan := Plan{{VersionDisplay: "1", Script: "V1__init.sql", Checksum: 1}}
	history := []models.HistoryRow{{Version: versionPtr("1"), Script: "V1__init.sql", Success: false}}

	err := checkBlockingHistory(plan, history)

	var se *Error
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, KindFailedPresent, se.Kind)
}

func TestCheckBlockingHistoryChecksumDrift(t *testing.T) {
	plan := Plan{{VersionDisplay: "1", Script: "V1__init.sql", Checksum: 2}}
	stale := int32(1)
	history := []models.HistoryRow{{Version: versionPtr("1"), Script: "V1__init.sql", Checksum: &stale, Success: true}}

	err := checkBlockingHistory(plan, history)

	var se *Error
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, KindDrift, se.Kind)
}

func TestCheckBlockingHistoryClean(t *testing.T) {
	plan := Plan{{VersionDisplay: "1", Script: "V1__init.sql", Checksum: 1}}
	checksum := int32(1)
	history := []models.HistoryRow{{Version: versionPtr("1"), Script: "V1__init.sql", Checksum: &checksum, Success: true}}

	assert.NoError(t, checkBlockingHistory(plan, history))
}

func TestCheckBlockingHistoryMatchesRenamedScriptBySameVersion(t *testing.T) {
	plan := Plan{{VersionDisplay: "1", Script: "V1__renamed.sql", Checksum: 1}}
	checksum := int32(1)
	history := []models.HistoryRow{{Version: versionPtr("1"), Script: "V1__init.sql", Checksum: &checksum, Success: true}}

	assert.NoError(t, checkBlockingHistory(plan, history))
}

func TestEnsureExecutorsRegisteredMissing(t *testing.T) {
	plan := Plan{{Kind: MigrationKindRust, Script: "V1__backfill.rs"}}
	registry := NewExecutorRegistry()

	err := ensureExecutorsRegistered(plan, registry)

	var se *Error
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, KindConfig, se.Kind)
}

func TestEnsureExecutorsRegisteredPresent(t *testing.T) {
	plan := Plan{{Kind: MigrationKindRust, Script: "V1__backfill.rs"}}
	registry := NewExecutorRegistry()
	registry.Register("V1__backfill.rs", ExecutorFunc(func(ctx context.Context, conn ExecutorConn) error {
		return nil
	}))

	assert.NoError(t, ensureExecutorsRegistered(plan, registry))
}

func TestChecksumsEqual(t *testing.T) {
	v := int32(7)
	assert.True(t, checksumsEqual(&v, 7))
	assert.False(t, checksumsEqual(&v, 8))
	assert.False(t, checksumsEqual(nil, 7))
}
